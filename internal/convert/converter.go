// Package convert optionally rewrites https:// stream URLs to http://,
// verifying each rewrite with a probe before it is applied.
package convert

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/urlutil"
)

// Stats summarizes one conversion pass.
type Stats struct {
	Input      int
	Candidates int
	Probed     int
	Converted  int
}

// Result maps channel ids to their verified http:// replacement URLs.
// Conversion never drops a channel; ids absent from Updates keep their
// original URL.
type Result struct {
	Updates map[string]string
	Stats   Stats
}

// Converter rewrites https URLs to http with bounded-concurrency probe
// verification.
type Converter struct {
	enabled     bool
	validate    bool
	timeout     time.Duration
	concurrency int
	client      *httpclient.Client
	logger      *slog.Logger
}

// New creates a converter from the configuration.
func New(cfg *config.Config, client *httpclient.Client, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		enabled:     cfg.ConvertHttpsToHttp,
		validate:    cfg.ValidateHttpConversion,
		timeout:     cfg.HTTPConversionTimeout(),
		concurrency: cfg.HttpConversionConcurrency,
		logger:      logger,
		client:      client,
	}
}

// Enabled reports whether conversion is turned on.
func (c *Converter) Enabled() bool {
	return c.enabled
}

// Convert produces the URL updates for every https channel. When
// validation is on, a candidate is only adopted after its http URL
// answers a probe; probe failure keeps the original URL intact.
func (c *Converter) Convert(ctx context.Context, channels []*models.Channel) (*Result, error) {
	result := &Result{
		Updates: make(map[string]string),
		Stats:   Stats{Input: len(channels)},
	}
	if !c.enabled {
		return result, nil
	}

	type candidate struct {
		id  string
		url string
	}
	var candidates []candidate
	for _, ch := range channels {
		if httpURL, ok := urlutil.SwapToHTTP(ch.StreamURL); ok {
			candidates = append(candidates, candidate{id: ch.ID, url: httpURL})
		}
	}
	result.Stats.Candidates = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	if !c.validate {
		for _, cand := range candidates {
			result.Updates[cand.id] = cand.url
		}
		result.Stats.Converted = len(candidates)
		return result, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, c.concurrency)
	)
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(cand candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			ok := c.probe(ctx, cand.url)
			mu.Lock()
			result.Stats.Probed++
			if ok {
				result.Updates[cand.id] = cand.url
				result.Stats.Converted++
			}
			mu.Unlock()
		}(cand)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Info("https to http conversion finished",
		slog.Int("candidates", result.Stats.Candidates),
		slog.Int("probed", result.Stats.Probed),
		slog.Int("converted", result.Stats.Converted),
	)
	return result, nil
}

// probe checks whether the rewritten URL answers. Any 2xx/3xx counts;
// a HEAD rejection falls back to a small range GET.
func (c *Converter) probe(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Head(probeCtx, url)
	if err == nil {
		defer resp.Body.Close()
		if acceptable(resp.StatusCode) {
			return true
		}
		if resp.StatusCode != http.StatusMethodNotAllowed && resp.StatusCode != http.StatusNotImplemented {
			return false
		}
	}

	resp, err = c.client.RangeGet(probeCtx, url, 1024)
	if err != nil {
		c.logger.Debug("conversion probe failed",
			slog.String("url", urlutil.Obfuscate(url)),
			slog.String("error", err.Error()),
		)
		return false
	}
	defer resp.Body.Close()
	return acceptable(resp.StatusCode)
}

func acceptable(status int) bool {
	return status >= 200 && status < 400
}
