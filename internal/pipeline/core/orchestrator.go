package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
)

// running guards against overlapping runs, which matters in watch mode
// when a slow run outlasts the schedule interval.
var (
	running   bool
	runningMu sync.Mutex
)

// Orchestrator executes the pipeline phases in sequence.
type Orchestrator struct {
	stages  []Stage
	state   *State
	logger  *slog.Logger
	onPhase func(stageID, stageName string)
}

// NewOrchestrator creates an Orchestrator over the given phases.
func NewOrchestrator(state *State, stages []Stage, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		stages: stages,
		state:  state,
		logger: logger,
	}
}

// OnPhase registers a callback invoked as each phase starts.
func (o *Orchestrator) OnPhase(fn func(stageID, stageName string)) {
	o.onPhase = fn
}

// Execute runs all phases in order. A critical failure aborts the run;
// the failing phase's error is returned alongside the partial result.
func (o *Orchestrator) Execute(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:        o.state.RunID,
		StageResults: make(map[string]*StageResult),
	}

	if !acquireRun() {
		return result, ErrPipelineAlreadyRunning
	}
	defer releaseRun()

	tempDir, err := os.MkdirTemp("", fmt.Sprintf("tvforge-run-%s-*", o.state.RunID))
	if err != nil {
		return result, Errorf(CategoryFilesystem, "creating temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			o.logger.Warn("failed to remove temp directory",
				slog.String("path", tempDir),
				slog.String("error", err.Error()),
			)
		}
	}()
	o.state.TempDir = tempDir

	o.logger.InfoContext(ctx, "starting pipeline run",
		slog.String("run_id", o.state.RunID),
		slog.Int("phase_count", len(o.stages)),
	)

	startTime := time.Now()

	for i, stage := range o.stages {
		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, ctx.Err())
			result.Duration = time.Since(startTime)
			o.cleanupStages(ctx, o.stages[:i+1])
			return result, ctx.Err()
		default:
		}

		stageResult, err := o.executeStage(ctx, i, stage)
		result.StageResults[stage.ID()] = stageResult

		if err != nil {
			result.Errors = append(result.Errors, NewStageError(stage.ID(), stage.Name(), err))
			result.Duration = time.Since(startTime)
			o.cleanupStages(ctx, o.stages[:i+1])
			return result, err
		}

		// Channel sets can be large; release prior-phase garbage
		// before the next phase allocates.
		runtime.GC()
	}

	result.Success = true
	result.ChannelCount = len(o.state.Channels)
	result.RejectedCount = len(o.state.Rejections)
	result.Duration = time.Since(startTime)
	result.Errors = append(result.Errors, o.state.Errors...)

	for _, artifacts := range o.state.Artifacts {
		for _, a := range artifacts {
			switch a.Type {
			case ArtifactTypeCatalog:
				result.CatalogPath = a.FilePath
			case ArtifactTypePlaylist:
				result.PlaylistPath = a.FilePath
			}
		}
	}

	o.logger.InfoContext(ctx, "pipeline run completed",
		slog.String("run_id", o.state.RunID),
		slog.Int("channel_count", result.ChannelCount),
		slog.Int("rejected_count", result.RejectedCount),
		slog.Duration("duration", result.Duration),
		slog.Bool("success", result.Success),
	)

	o.cleanupStages(ctx, o.stages)
	return result, nil
}

// executeStage runs a single phase with timing and logging.
func (o *Orchestrator) executeStage(ctx context.Context, index int, stage Stage) (*StageResult, error) {
	stageStart := time.Now()

	if o.onPhase != nil {
		o.onPhase(stage.ID(), stage.Name())
	}
	o.logger.InfoContext(ctx, "executing phase",
		slog.Int("phase_num", index+1),
		slog.Int("total_phases", len(o.stages)),
		slog.String("stage_id", stage.ID()),
		slog.String("stage_name", stage.Name()),
	)

	stageResult, err := stage.Execute(ctx, o.state)
	if stageResult == nil {
		stageResult = &StageResult{}
	}
	stageResult.Duration = time.Since(stageStart)

	if err != nil {
		o.logger.ErrorContext(ctx, "phase failed",
			slog.String("stage_id", stage.ID()),
			slog.String("category", string(CategoryOf(err))),
			slog.String("error", err.Error()),
			slog.Duration("duration", stageResult.Duration),
		)
		return stageResult, err
	}

	for _, artifact := range stageResult.Artifacts {
		o.state.AddArtifact(stage.ID(), artifact)
	}

	o.logger.InfoContext(ctx, "phase completed",
		slog.String("stage_id", stage.ID()),
		slog.Duration("duration", stageResult.Duration),
		slog.Int("records_processed", stageResult.RecordsProcessed),
		slog.Int("records_modified", stageResult.RecordsModified),
	)
	return stageResult, nil
}

// cleanupStages calls Cleanup on all given phases.
func (o *Orchestrator) cleanupStages(ctx context.Context, stages []Stage) {
	for _, stage := range stages {
		if err := stage.Cleanup(ctx); err != nil {
			o.logger.Warn("phase cleanup failed",
				slog.String("stage_id", stage.ID()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func acquireRun() bool {
	runningMu.Lock()
	defer runningMu.Unlock()
	if running {
		return false
	}
	running = true
	return true
}

func releaseRun() {
	runningMu.Lock()
	defer runningMu.Unlock()
	running = false
}

// State returns the current pipeline state (for testing).
func (o *Orchestrator) State() *State {
	return o.state
}

// Stages returns the configured phases (for testing).
func (o *Orchestrator) Stages() []Stage {
	return o.stages
}
