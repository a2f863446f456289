// Package preparation implements the preparation phase: filtering,
// identifier assignment, and record invariant checks.
package preparation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvforge/tvforge/internal/filter"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/pipeline/shared"
)

const (
	// StageID is the unique identifier for this phase.
	StageID = "preparation"
	// StageName is the human-readable name for this phase.
	StageName = "Preparation"
)

// Stage filters the loaded channels and establishes record invariants.
type Stage struct {
	shared.BaseStage
	filter *filter.Engine
	logger *slog.Logger
}

// New creates a new preparation stage.
func New(engine *filter.Engine, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		filter:    engine,
		logger:    logger.With("stage", StageID),
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return New(deps.Filter, deps.Logger)
	}
}

// Execute applies the exclusion rules, assigns identifiers, and drops
// records that violate the catalog invariants. Rule compilation
// failures are configuration errors and abort the run.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()
	result.RecordsProcessed = len(state.Channels)

	kept, rejections, stats, err := s.filter.Apply(ctx, state.Channels)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, core.NewError(core.CategoryConfiguration, err)
	}
	for _, rej := range rejections {
		state.Rejections = append(state.Rejections, core.Rejection{
			Channel: rej.Channel,
			Phase:   StageID,
			Reason:  fmt.Sprintf("%s:%s", rej.Category, rej.Rule),
		})
	}

	refTime := state.ReferenceTime.Unix()
	prepared := kept[:0]
	invalid := 0
	seen := make(map[string]int, len(kept))
	for _, ch := range kept {
		if err := ch.Validate(); err != nil {
			invalid++
			state.Rejections = append(state.Rejections, core.Rejection{
				Channel: ch,
				Phase:   StageID,
				Reason:  err.Error(),
			})
			s.logger.WarnContext(ctx, "dropping invalid record",
				slog.String("name", ch.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		ch.EnsureID(refTime)
		uniquifyID(ch, seen)
		prepared = append(prepared, ch)
	}
	state.Channels = prepared

	result.RecordsModified = stats.Rejected + invalid
	result.Message = fmt.Sprintf("Kept %d of %d channels (%d filtered, %d exempted, %d invalid)",
		len(prepared), stats.Input, stats.Rejected, stats.Exempted, invalid)

	s.logger.InfoContext(ctx, "preparation complete",
		slog.Int("input", stats.Input),
		slog.Int("kept", len(prepared)),
		slog.Int("filtered", stats.Rejected),
		slog.Int("exempted", stats.Exempted),
		slog.Int("invalid", invalid),
	)
	return result, nil
}

// uniquifyID enforces id uniqueness within the run. Source-provided
// ids can collide across origins; later records get a numeric suffix,
// deterministic because channels arrive in load order.
func uniquifyID(ch *models.Channel, seen map[string]int) {
	n, dup := seen[ch.ID]
	if !dup {
		seen[ch.ID] = 1
		return
	}
	seen[ch.ID] = n + 1
	ch.ID = fmt.Sprintf("%s_%d", ch.ID, n+1)
	seen[ch.ID] = 1
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
