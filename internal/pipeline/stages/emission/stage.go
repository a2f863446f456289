// Package emission implements the emission phase: final ordering and
// artifact writing.
package emission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvforge/tvforge/internal/emit"
	"github.com/tvforge/tvforge/internal/ordering"
	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/pipeline/shared"
)

const (
	// StageID is the unique identifier for this phase.
	StageID = "emission"
	// StageName is the human-readable name for this phase.
	StageName = "Emission"
)

// Stage orders the final set and writes the artifacts.
type Stage struct {
	shared.BaseStage
	orderer *ordering.Service
	emitter *emit.Emitter
	logger  *slog.Logger
}

// New creates a new emission stage.
func New(orderer *ordering.Service, emitter *emit.Emitter, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		orderer:   orderer,
		emitter:   emitter,
		logger:    logger.With("stage", StageID),
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return New(deps.Orderer, deps.Emitter, deps.Logger)
	}
}

// Execute sorts the working set and writes the catalog, playlist and
// fragments. Emission failures are critical: a run that cannot publish
// its artifacts has nothing to show.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()
	result.RecordsProcessed = len(state.Channels)

	ordered, orderStats := s.orderer.Order(state.Channels)
	state.Channels = ordered

	emitStats, err := s.emitter.Emit(ctx, ordered)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, core.NewError(core.CategoryFilesystem, err)
	}

	result.Artifacts = append(result.Artifacts,
		core.NewArtifact(core.ArtifactTypeCatalog, StageID).
			WithFilePath(emitStats.CatalogPath).
			WithRecordCount(emitStats.Channels),
		core.NewArtifact(core.ArtifactTypePlaylist, StageID).
			WithFilePath(emitStats.PlaylistPath).
			WithRecordCount(emitStats.Channels),
		core.NewArtifact(core.ArtifactTypeFragments, StageID).
			WithRecordCount(emitStats.Fragments),
	)
	if emitStats.BackupPath != "" {
		result.Artifacts = append(result.Artifacts,
			core.NewArtifact(core.ArtifactTypeBackup, StageID).
				WithFilePath(emitStats.BackupPath),
		)
	}

	result.RecordsModified = orderStats.Promoted + orderStats.Demoted
	result.Message = fmt.Sprintf("Emitted %d channels (%d promoted)", emitStats.Channels, orderStats.Promoted)

	s.logger.InfoContext(ctx, "emission complete",
		slog.Int("channels", emitStats.Channels),
		slog.Int("promoted", orderStats.Promoted),
		slog.Int("fragments", emitStats.Fragments),
	)
	return result, nil
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
