package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/urlutil"
)

// HybridRepository fuses every configured origin: remote playlist URLs,
// local playlist files, and an optional tabular file. Remote origins
// are fetched concurrently; results are concatenated in declared order
// so the merged stream is deterministic. A single failing origin is
// logged and skipped; the load fails only when every origin fails.
type HybridRepository struct {
	origins []Repository
	logger  *slog.Logger

	initialized bool
	channels    []*models.Channel
	failures    int
}

// NewHybridRepository aggregates the given repositories in order.
func NewHybridRepository(origins []Repository, logger *slog.Logger) *HybridRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridRepository{origins: origins, logger: logger}
}

// Kind implements Repository.
func (r *HybridRepository) Kind() models.SourceKind {
	return models.SourceHybrid
}

// Initialize loads every origin concurrently, then concatenates the
// survivors in declared order. OriginalIndex is reassigned over the
// merged stream so downstream stable sorts see the fused order.
func (r *HybridRepository) Initialize(ctx context.Context) error {
	if len(r.origins) == 0 {
		r.initialized = true
		r.logger.Warn("hybrid source has no origins configured")
		return nil
	}

	errs := make([]error, len(r.origins))
	var wg sync.WaitGroup
	for i, origin := range r.origins {
		wg.Add(1)
		go func(i int, origin Repository) {
			defer wg.Done()
			errs[i] = origin.Initialize(ctx)
		}(i, origin)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	var merged []*models.Channel
	loaded := 0
	for i, origin := range r.origins {
		if errs[i] != nil {
			r.failures++
			r.logger.Warn("hybrid origin failed, skipping",
				slog.String("kind", string(origin.Kind())),
				slog.String("error", urlutil.Obfuscate(errs[i].Error())),
			)
			continue
		}
		loaded++
		channels, err := origin.Channels(ctx)
		if err != nil {
			r.failures++
			r.logger.Warn("hybrid origin yielded no channels",
				slog.String("kind", string(origin.Kind())),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, ch := range channels {
			ch.OriginalIndex = len(merged)
			merged = append(merged, ch)
		}
	}

	if loaded == 0 {
		return fmt.Errorf("%w: %d origins", ErrAllSourcesFailed, len(r.origins))
	}

	r.channels = merged
	r.initialized = true
	r.logger.Info("hybrid sources merged",
		slog.Int("origins", len(r.origins)),
		slog.Int("failed", r.failures),
		slog.Int("channels", len(merged)),
	)
	return nil
}

// Channels implements Repository.
func (r *HybridRepository) Channels(ctx context.Context) ([]*models.Channel, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	return r.channels, nil
}

// Count implements Repository.
func (r *HybridRepository) Count(ctx context.Context) (int, error) {
	if !r.initialized {
		return 0, ErrNotInitialized
	}
	return len(r.channels), nil
}

// Failures returns how many origins failed during Initialize.
func (r *HybridRepository) Failures() int {
	return r.failures
}

var _ Repository = (*HybridRepository)(nil)
