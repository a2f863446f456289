// Package loadchannels implements the data-loading phase: source
// resolution, repository initialization, and channel acquisition.
package loadchannels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/pipeline/shared"
	"github.com/tvforge/tvforge/internal/source"
)

const (
	// StageID is the unique identifier for this phase.
	StageID = "data-loading"
	// StageName is the human-readable name for this phase.
	StageName = "Data Loading"
)

// Stage loads channels from the configured source.
type Stage struct {
	shared.BaseStage
	sources *source.Factory
	logger  *slog.Logger
}

// New creates a new data-loading stage.
func New(sources *source.Factory, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		sources:   sources,
		logger:    logger.With("stage", StageID),
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return New(deps.Sources, deps.Logger)
	}
}

// Execute resolves the configured source, initializes its repository,
// and places the loaded channels into the state. An empty source
// configuration yields an empty channel set; the run continues and
// emits headers-only artifacts.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()

	src, err := source.ResolveSource(state.Config, s.logger)
	if err != nil {
		return result, core.NewError(core.CategoryConfiguration, err)
	}

	if !state.Config.HasInputs() {
		s.logger.WarnContext(ctx, "no channel sources configured, emitting empty artifacts")
		state.Channels = nil
		result.Message = "no sources configured"
		return result, nil
	}

	repo, err := s.sources.ForSource(src)
	if err != nil {
		return result, core.NewError(core.CategoryConfiguration, err)
	}

	s.logger.InfoContext(ctx, "loading channels",
		slog.String("source", src.String()),
	)

	if err := repo.Initialize(ctx); err != nil {
		if errors.Is(err, source.ErrAllSourcesFailed) {
			return result, core.NewError(core.CategorySource, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		return result, core.NewError(core.CategorySource, fmt.Errorf("initializing %s: %w", src.Kind, err))
	}

	channels, err := repo.Channels(ctx)
	if err != nil {
		return result, core.NewError(core.CategorySource, err)
	}
	state.Channels = channels

	result.RecordsProcessed = len(channels)
	result.Message = fmt.Sprintf("Loaded %d channels from %s", len(channels), src.Kind)

	s.logger.InfoContext(ctx, "channel load complete",
		slog.Int("channel_count", len(channels)),
		slog.String("source_kind", string(src.Kind)),
	)
	return result, nil
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
