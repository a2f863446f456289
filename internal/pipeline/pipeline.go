// Package pipeline composes the catalog build: the coordinator wires
// configuration, service construction, and the phase sequence.
//
// The pipeline is organized into several sub-packages:
//   - core: orchestrator, interfaces, and base types
//   - shared: utilities shared between phases
//   - stages/*: individual phase implementations
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/observability"
	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/pipeline/stages/coreprocessing"
	"github.com/tvforge/tvforge/internal/pipeline/stages/emission"
	"github.com/tvforge/tvforge/internal/pipeline/stages/enrichment"
	"github.com/tvforge/tvforge/internal/pipeline/stages/loadchannels"
	"github.com/tvforge/tvforge/internal/pipeline/stages/preparation"
	"github.com/tvforge/tvforge/internal/pipeline/stages/summary"
)

// Re-export core types for convenience.
type (
	// Stage is a single phase in the pipeline.
	Stage = core.Stage

	// State holds shared data between phases.
	State = core.State

	// Result is the outcome of a pipeline run.
	Result = core.Result

	// StageResult is the outcome of a single phase.
	StageResult = core.StageResult

	// Orchestrator executes phases in sequence.
	Orchestrator = core.Orchestrator

	// Dependencies bundles phase dependencies.
	Dependencies = core.Dependencies

	// StageConstructor creates phases from dependencies.
	StageConstructor = core.StageConstructor
)

// Coordinator owns one pipeline run end to end: the configuration and
// service-init phases, then the orchestrated phase sequence.
type Coordinator struct {
	cfg      *config.Config
	logger   *slog.Logger
	refTime  time.Time
	progress func(stageID, stageName string)
}

// Option adjusts coordinator construction.
type Option func(*Coordinator)

// WithReferenceTime pins the timestamp used for synthesized channel
// ids and backup names, making runs reproducible.
func WithReferenceTime(t time.Time) Option {
	return func(c *Coordinator) {
		c.refTime = t
	}
}

// WithProgress registers a callback invoked as each phase starts.
func WithProgress(fn func(stageID, stageName string)) Option {
	return func(c *Coordinator) {
		c.progress = fn
	}
}

// NewCoordinator creates a coordinator for one configuration.
func NewCoordinator(cfg *config.Config, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		cfg:     cfg,
		logger:  observability.WithComponent(logger, "pipeline"),
		refTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultStages returns the phase constructors in execution order.
func DefaultStages() []StageConstructor {
	return []StageConstructor{
		loadchannels.NewConstructor(),
		preparation.NewConstructor(),
		coreprocessing.NewConstructor(),
		enrichment.NewConstructor(),
		emission.NewConstructor(),
		summary.NewConstructor(),
	}
}

// Run executes one full pipeline run. The configuration phase
// validates the config, service-init constructs the shared services,
// and the orchestrator sequences the remaining phases. Both leading
// phases are recorded in the result like any other.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	runID := models.NewULID().String()
	correlationID := uuid.NewString()
	logger := observability.WithRunID(c.logger, runID).With(
		slog.String("correlation_id", correlationID),
	)
	ctx = observability.ContextWithRunID(ctx, runID)

	state := core.NewState(runID, correlationID, c.cfg, c.refTime)

	configResult, err := timedPhase(func() error {
		return c.cfg.Validate()
	})
	if err != nil {
		logger.ErrorContext(ctx, "configuration phase failed",
			slog.String("error", err.Error()),
		)
		return failedResult(runID, "configuration", configResult,
			core.NewError(core.CategoryConfiguration, err))
	}

	builder := core.NewBuilder(c.cfg, logger)
	var deps *core.Dependencies
	initResult, err := timedPhase(func() error {
		var buildErr error
		deps, buildErr = builder.Build()
		return buildErr
	})
	if err != nil {
		logger.ErrorContext(ctx, "service-init phase failed",
			slog.String("error", err.Error()),
		)
		return failedResult(runID, "service-init", initResult, err)
	}
	defer func() {
		if closeErr := builder.Close(); closeErr != nil {
			logger.Warn("closing services", slog.String("error", closeErr.Error()))
		}
	}()

	factory := core.NewFactory(deps)
	for _, constructor := range DefaultStages() {
		factory.RegisterStage(constructor)
	}

	orchestrator := factory.Create(state)
	if c.progress != nil {
		orchestrator.OnPhase(c.progress)
	}

	result, err := orchestrator.Execute(ctx)
	result.StageResults["configuration"] = configResult
	result.StageResults["service-init"] = initResult
	return result, err
}

// timedPhase measures a leading phase that runs outside the
// orchestrator.
func timedPhase(work func() error) (*StageResult, error) {
	start := time.Now()
	err := work()
	return &StageResult{Duration: time.Since(start)}, err
}

// failedResult assembles the result of a run aborted before the
// orchestrator started.
func failedResult(runID, phase string, phaseResult *StageResult, err error) (*Result, error) {
	result := &Result{
		RunID:        runID,
		StageResults: map[string]*StageResult{phase: phaseResult},
		Errors:       []error{err},
		Duration:     phaseResult.Duration,
	}
	return result, err
}
