// Package coreprocessing implements the core-processing phase:
// deduplication and HTTPS conversion running concurrently over the
// prepared set, a merge of their outputs, then stream validation.
package coreprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvforge/tvforge/internal/convert"
	"github.com/tvforge/tvforge/internal/dedup"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/pipeline/shared"
	"github.com/tvforge/tvforge/internal/urlutil"
	"github.com/tvforge/tvforge/internal/validate"
)

const (
	// StageID is the unique identifier for this phase.
	StageID = "core-processing"
	// StageName is the human-readable name for this phase.
	StageName = "Core Processing"
)

// Stage runs deduplication, HTTPS conversion and validation. Each of
// the three degrades to passthrough on failure; only cancellation
// propagates out.
type Stage struct {
	shared.BaseStage
	dedup     *dedup.Engine
	converter *convert.Converter
	validator *validate.Validator
	logger    *slog.Logger
}

// New creates a new core-processing stage.
func New(d *dedup.Engine, c *convert.Converter, v *validate.Validator, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		dedup:     d,
		converter: c,
		validator: v,
		logger:    logger.With("stage", StageID),
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return New(deps.Dedup, deps.Converter, deps.Validator, deps.Logger)
	}
}

// Execute composes the three operations. Deduplication and conversion
// consume the same input concurrently; conversion's URL updates are
// then applied onto the deduplicated set by id, and validation filters
// the merged result.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()
	input := state.Channels
	result.RecordsProcessed = len(input)

	var (
		dedupResult   *dedup.Result
		convertResult *convert.Result
		dedupErr      error
		convertErr    error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		convertResult, convertErr = s.converter.Convert(ctx, input)
	}()
	dedupResult, dedupErr = s.dedup.Deduplicate(ctx, input)
	<-done

	if err := ctx.Err(); err != nil {
		return result, err
	}

	channels := input
	if dedupErr != nil {
		// Passthrough: the full set continues, duplicates intact.
		state.AddError(core.NewError(core.CategoryProcessing, fmt.Errorf("deduplication: %w", dedupErr)))
		s.logger.WarnContext(ctx, "deduplication failed, keeping full set",
			slog.String("error", dedupErr.Error()),
		)
	} else {
		channels = dedupResult.Channels
		for _, removal := range dedupResult.Removed {
			state.Rejections = append(state.Rejections, core.Rejection{
				Channel: removal.Channel,
				Phase:   StageID,
				Reason:  removal.Reason,
			})
		}
	}

	if convertErr != nil {
		state.AddError(core.NewError(core.CategoryNetwork, fmt.Errorf("https conversion: %w", convertErr)))
		s.logger.WarnContext(ctx, "https conversion failed, keeping original urls",
			slog.String("error", convertErr.Error()),
		)
	} else if len(convertResult.Updates) > 0 {
		applied := 0
		for _, ch := range channels {
			if replacement, ok := convertResult.Updates[ch.ID]; ok {
				ch.StreamURL = replacement
				applied++
			}
		}
		s.logger.DebugContext(ctx, "applied conversion updates",
			slog.Int("updates", len(convertResult.Updates)),
			slog.Int("applied", applied),
		)
	}

	validateResult, err := s.validator.Validate(ctx, channels)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		state.AddError(core.NewError(core.CategoryNetwork, fmt.Errorf("validation: %w", err)))
		s.logger.WarnContext(ctx, "validation failed, keeping unvalidated set",
			slog.String("error", err.Error()),
		)
	} else {
		for _, ch := range channels {
			verdict, ok := validateResult.Verdicts[ch.ID]
			if ok && !verdict.Reachable() && s.validator.Removes() {
				state.Rejections = append(state.Rejections, core.Rejection{
					Channel: ch,
					Phase:   StageID,
					Reason:  "validation:" + string(verdict.Outcome),
				})
			}
		}
		channels = validateResult.Channels
	}

	if dedupErr == nil {
		if err := checkInvariants(channels); err != nil {
			return result, err
		}
	}

	result.RecordsModified = len(input) - len(channels)
	result.Message = fmt.Sprintf("%d channels in, %d out", len(input), len(channels))
	state.Channels = channels

	s.logger.InfoContext(ctx, "core processing complete",
		slog.Int("input", len(input)),
		slog.Int("output", len(channels)),
	)
	return result, nil
}

// checkInvariants verifies the merged set: ids unique, no two channels
// sharing a normalized stream URL. Skipped when deduplication fell back
// to passthrough, since the passthrough set keeps its duplicates.
func checkInvariants(channels []*models.Channel) error {
	ids := make(map[string]struct{}, len(channels))
	urls := make(map[string]string, len(channels))
	for _, ch := range channels {
		if _, dup := ids[ch.ID]; dup {
			return core.Errorf(core.CategoryInvariant, "duplicate channel id %q after merge", ch.ID)
		}
		ids[ch.ID] = struct{}{}

		key := urlutil.Normalize(ch.StreamURL)
		if other, dup := urls[key]; dup {
			return core.Errorf(core.CategoryInvariant,
				"channels %q and %q share stream url %s after merge", other, ch.ID, urlutil.Obfuscate(ch.StreamURL))
		}
		urls[key] = ch.ID
	}
	return nil
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
