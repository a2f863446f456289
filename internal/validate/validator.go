package validate

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
)

// VerdictStore persists verdicts across runs. The probestore package
// provides the sqlite implementation; a nil store keeps verdicts
// in-memory only.
type VerdictStore interface {
	Get(ctx context.Context, url, method string) (models.ValidationVerdict, bool)
	Put(ctx context.Context, verdict models.ValidationVerdict) error
}

// Stats summarizes one validation pass.
type Stats struct {
	Input       int
	Probed      int
	CacheHits   int
	Reachable   int
	Unreachable int
	Dropped     int
	Deactivated int
	EarlyFailed int
}

// Result carries the surviving set and per-channel verdicts.
type Result struct {
	Channels []*models.Channel
	Verdicts map[string]models.ValidationVerdict
	Stats    Stats
}

// Validator probes channel stream URLs in fixed-size batches with
// bounded concurrency. Unreachable channels are dropped when
// removeInvalidStreams is set, otherwise retained with isActive=false.
type Validator struct {
	enabled      bool
	remove       bool
	concurrency  int
	batchSize    int
	retries      int
	retryDelay   time.Duration
	early        bool
	earlyTimeout time.Duration
	deep         bool

	prober *Prober
	cache  *Cache
	store  VerdictStore
	deepIn *deepInspector
	logger *slog.Logger
}

// New creates a validator from the configuration. store may be nil.
func New(cfg *config.Config, client *httpclient.Client, store VerdictStore, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{
		enabled:      cfg.EnableStreamValidation,
		remove:       cfg.RemoveInvalidStreams,
		concurrency:  cfg.ValidationConcurrency,
		batchSize:    cfg.ValidationBatchSize,
		retries:      cfg.ValidationRetries,
		retryDelay:   cfg.ValidationRetryDelay.Duration(),
		early:        cfg.EarlyValidation,
		earlyTimeout: cfg.EarlyValidationTimeout(),
		deep:         cfg.DeepValidation,
		prober:       NewProber(client, cfg.StreamValidationTimeout(), logger),
		cache:        NewCache(cfg.ValidationCacheSize, cfg.ValidationCacheTtl.Duration()),
		store:        store,
		logger:       logger,
	}
	if v.deep {
		v.deepIn = &deepInspector{client: client, logger: logger}
	}
	return v
}

// Enabled reports whether validation is turned on.
func (v *Validator) Enabled() bool {
	return v.enabled
}

// Removes reports whether unreachable channels are dropped rather than
// retained with isActive=false.
func (v *Validator) Removes() bool {
	return v.remove
}

// ProbeQuick satisfies the deduplicator's Prober: a single fail-fast
// probe through the shared cache.
func (v *Validator) ProbeQuick(ctx context.Context, url string) bool {
	verdict := v.lookup(ctx, url, http.MethodHead)
	if verdict != nil {
		return verdict.Reachable()
	}
	fresh := v.prober.ProbeFast(ctx, url, v.earlyTimeout)
	v.remember(ctx, fresh)
	return fresh.Reachable()
}

// Validate probes every channel and partitions the set. A disabled
// validator returns the input unchanged with skipped verdicts.
func (v *Validator) Validate(ctx context.Context, channels []*models.Channel) (*Result, error) {
	result := &Result{
		Verdicts: make(map[string]models.ValidationVerdict, len(channels)),
		Stats:    Stats{Input: len(channels)},
	}

	if !v.enabled {
		result.Channels = channels
		for _, ch := range channels {
			result.Verdicts[ch.ID] = models.ValidationVerdict{
				URL:     ch.StreamURL,
				Outcome: models.OutcomeSkipped,
			}
		}
		return result, nil
	}

	// Early pass: tight-deadline probes mark the clearly dead URLs so
	// the full pass never spends its 45s budget on them.
	earlyFailed := make(map[string]bool)
	if v.early {
		failed, err := v.earlyPass(ctx, channels)
		if err != nil {
			return nil, err
		}
		earlyFailed = failed
		result.Stats.EarlyFailed = len(failed)
	}

	for start := 0; start < len(channels); start += v.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + v.batchSize
		if end > len(channels) {
			end = len(channels)
		}
		v.validateBatch(ctx, channels[start:end], earlyFailed, result)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, ch := range channels {
		verdict := result.Verdicts[ch.ID]
		if verdict.Reachable() {
			result.Stats.Reachable++
			result.Channels = append(result.Channels, ch)
			continue
		}
		result.Stats.Unreachable++
		if v.remove {
			result.Stats.Dropped++
			continue
		}
		ch.IsActive = false
		result.Stats.Deactivated++
		result.Channels = append(result.Channels, ch)
	}

	hits, misses := v.cache.HitRate()
	v.logger.Info("stream validation finished",
		slog.Int("input", result.Stats.Input),
		slog.Int("reachable", result.Stats.Reachable),
		slog.Int("unreachable", result.Stats.Unreachable),
		slog.Int("dropped", result.Stats.Dropped),
		slog.Int("deactivated", result.Stats.Deactivated),
		slog.Int("cache_hits", hits),
		slog.Int("cache_misses", misses),
	)
	return result, nil
}

// earlyPass probes every URL with the fail-fast deadline and returns
// the set of URLs that did not answer.
func (v *Validator) earlyPass(ctx context.Context, channels []*models.Channel) (map[string]bool, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, v.concurrency)
		failed = make(map[string]bool)
	)
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(url string) {
			defer wg.Done()
			defer func() { <-sem }()
			verdict := v.prober.ProbeFast(ctx, url, v.earlyTimeout)
			if !verdict.Reachable() {
				mu.Lock()
				failed[url] = true
				mu.Unlock()
			}
		}(ch.StreamURL)
	}
	wg.Wait()
	return failed, ctx.Err()
}

// validateBatch probes one batch with bounded concurrency, recording a
// verdict per channel.
func (v *Validator) validateBatch(ctx context.Context, batch []*models.Channel, earlyFailed map[string]bool, result *Result) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, v.concurrency)
	)
	for _, ch := range batch {
		if ctx.Err() != nil {
			return
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(ch *models.Channel) {
			defer wg.Done()
			defer func() { <-sem }()

			verdict, fromCache := v.verdictFor(ctx, ch.StreamURL, earlyFailed)

			mu.Lock()
			result.Verdicts[ch.ID] = verdict
			if fromCache {
				result.Stats.CacheHits++
			} else {
				result.Stats.Probed++
			}
			mu.Unlock()
		}(ch)
	}
	wg.Wait()
}

// verdictFor resolves one URL: early-fail shortcut, cache, persistent
// store, then a live probe with retries.
func (v *Validator) verdictFor(ctx context.Context, url string, earlyFailed map[string]bool) (models.ValidationVerdict, bool) {
	if earlyFailed[url] {
		return models.ValidationVerdict{
			URL:       url,
			Method:    http.MethodHead,
			Outcome:   models.OutcomeUnreachable,
			Err:       "failed early validation",
			CheckedAt: time.Now(),
		}, false
	}

	if cached := v.lookup(ctx, url, http.MethodHead); cached != nil {
		return *cached, true
	}

	verdict := v.prober.Probe(ctx, url)
	for attempt := 0; attempt < v.retries && !verdict.Reachable(); attempt++ {
		select {
		case <-ctx.Done():
			return verdict, false
		case <-time.After(v.retryDelay):
		}
		verdict = v.prober.Probe(ctx, url)
	}

	if v.deepIn != nil {
		verdict = v.deepIn.inspect(ctx, verdict)
	}

	v.remember(ctx, verdict)
	return verdict, false
}

// lookup checks the in-memory cache, then the persistent store. Store
// hits are promoted into the memory cache. Both probe methods are
// consulted: a verdict earned through the GET fallback answers for the
// URL as well as a HEAD one.
func (v *Validator) lookup(ctx context.Context, url, method string) *models.ValidationVerdict {
	for _, m := range []string{method, otherMethod(method)} {
		if verdict, ok := v.cache.Get(url, m); ok {
			return &verdict
		}
		if v.store != nil {
			if verdict, ok := v.store.Get(ctx, url, m); ok {
				v.cache.Put(verdict)
				return &verdict
			}
		}
	}
	return nil
}

func otherMethod(method string) string {
	if method == http.MethodHead {
		return http.MethodGet
	}
	return http.MethodHead
}

func (v *Validator) remember(ctx context.Context, verdict models.ValidationVerdict) {
	v.cache.Put(verdict)
	if v.store != nil {
		if err := v.store.Put(ctx, verdict); err != nil {
			v.logger.Warn("persisting probe verdict failed",
				slog.String("error", err.Error()),
			)
		}
	}
}
