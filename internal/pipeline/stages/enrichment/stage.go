// Package enrichment implements the chunk-enrichment phase.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvforge/tvforge/internal/enrich"
	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/pipeline/shared"
)

const (
	// StageID is the unique identifier for this phase.
	StageID = "chunk-enrichment"
	// StageName is the human-readable name for this phase.
	StageName = "Chunk Enrichment"
)

// Stage enriches channels through the chunked worker pool.
type Stage struct {
	shared.BaseStage
	enricher *enrich.Pipeline
	logger   *slog.Logger
}

// New creates a new enrichment stage.
func New(enricher *enrich.Pipeline, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		enricher:  enricher,
		logger:    logger.With("stage", StageID),
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return New(deps.Enricher, deps.Logger)
	}
}

// Execute runs the enrichment pool over the working set. Failed chunks
// keep their pre-enrichment fields and are surfaced as non-fatal
// errors; only cancellation aborts the phase.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()
	result.RecordsProcessed = len(state.Channels)

	channels, stats, err := s.enricher.Enrich(ctx, state.Channels)
	if err != nil {
		return result, err
	}
	state.Channels = channels

	if stats.ChunkFailures > 0 {
		state.AddError(core.NewError(core.CategoryProcessing,
			fmt.Errorf("%d enrichment chunks failed", stats.ChunkFailures)))
	}

	result.RecordsModified = stats.NamesCleaned + stats.GenresSet + stats.ArtworkFilled
	result.Message = fmt.Sprintf("Enriched %d channels in %d chunks", stats.Input, stats.Chunks)
	return result, nil
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
