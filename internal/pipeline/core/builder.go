package core

import (
	"log/slog"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/convert"
	"github.com/tvforge/tvforge/internal/dedup"
	"github.com/tvforge/tvforge/internal/emit"
	"github.com/tvforge/tvforge/internal/enrich"
	"github.com/tvforge/tvforge/internal/filter"
	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/ordering"
	"github.com/tvforge/tvforge/internal/probestore"
	"github.com/tvforge/tvforge/internal/source"
	"github.com/tvforge/tvforge/internal/validate"
)

// Builder constructs the shared service set from configuration. This
// is the service-init step; its failures are categorized as service
// errors and abort the run.
type Builder struct {
	cfg    *config.Config
	logger *slog.Logger

	store *probestore.Store
}

// NewBuilder creates a service builder for one configuration.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Build constructs every pipeline service. Call Close when the
// dependencies are no longer needed to release the persistent probe
// store.
func (b *Builder) Build() (*Dependencies, error) {
	cfg := b.cfg

	client := httpclient.New(httpclient.Config{
		Timeout:          cfg.FetchTimeout(),
		RetryAttempts:    cfg.HTTP.MaxRetries,
		RetryDelay:       cfg.HTTP.RetryBackoff.Duration(),
		BreakerThreshold: cfg.HTTP.BreakerThreshold,
		BreakerCooldown:  cfg.HTTP.BreakerCooldown.Duration(),
		UserAgent:        cfg.HTTP.UserAgent,
		Logger:           b.logger,
	})

	var store validate.VerdictStore
	if cfg.Cache.Path != "" {
		opened, err := probestore.Open(
			cfg.ResolvePath(cfg.Cache.Path),
			cfg.ValidationCacheTtl.Duration(),
			cfg.Cache.LogLevel,
			b.logger,
		)
		if err != nil {
			return nil, NewError(CategoryService, err)
		}
		b.store = opened
		store = opened
	}

	validator := validate.New(cfg, client, store, b.logger)

	deps := &Dependencies{
		Config:    cfg,
		Logger:    b.logger,
		Sources:   source.NewFactory(cfg, client, b.logger),
		Filter:    filter.New(cfg, b.logger),
		Dedup:     dedup.New(cfg, sourceOrder(cfg), validator, b.logger),
		Converter: convert.New(cfg, client, b.logger),
		Validator: validator,
		Enricher:  enrich.New(cfg, enrich.NewArtworkGenerator(cfg.ArtworkPath()), b.logger),
		Orderer:   ordering.New(cfg, b.logger),
		Emitter:   emit.New(cfg, b.logger),
	}
	return deps, nil
}

// Close releases resources held by built services.
func (b *Builder) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

// sourceOrder maps provenance labels to their configured priority,
// matching the labels repositories record on loaded channels.
func sourceOrder(cfg *config.Config) map[string]int {
	order := make(map[string]int)
	next := 0
	add := func(label string) {
		if _, seen := order[label]; !seen {
			order[label] = next
			next++
		}
	}
	for _, url := range cfg.PlaylistUrls {
		add(url)
	}
	for _, path := range cfg.LocalPlaylistFiles {
		add(cfg.ResolvePath(path))
	}
	if cfg.ChannelsFile != "" {
		add(cfg.ResolvePath(cfg.ChannelsFile))
	}
	return order
}
