package core

import (
	"log/slog"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/convert"
	"github.com/tvforge/tvforge/internal/dedup"
	"github.com/tvforge/tvforge/internal/emit"
	"github.com/tvforge/tvforge/internal/enrich"
	"github.com/tvforge/tvforge/internal/filter"
	"github.com/tvforge/tvforge/internal/ordering"
	"github.com/tvforge/tvforge/internal/source"
	"github.com/tvforge/tvforge/internal/validate"
)

// Dependencies bundles the services pipeline phases draw on. The
// coordinator constructs them once during service-init and shares them
// across phases.
type Dependencies struct {
	Config    *config.Config
	Logger    *slog.Logger
	Sources   *source.Factory
	Filter    *filter.Engine
	Dedup     *dedup.Engine
	Converter *convert.Converter
	Validator *validate.Validator
	Enricher  *enrich.Pipeline
	Orderer   *ordering.Service
	Emitter   *emit.Emitter
}

// StageConstructor is a function that creates a phase from dependencies.
type StageConstructor func(deps *Dependencies) Stage

// Factory assembles configured Orchestrator instances.
type Factory struct {
	deps              *Dependencies
	stageConstructors []StageConstructor
}

// NewFactory creates a new pipeline Factory.
func NewFactory(deps *Dependencies) *Factory {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Factory{deps: deps}
}

// RegisterStage adds a phase constructor. Phases execute in
// registration order.
func (f *Factory) RegisterStage(constructor StageConstructor) {
	f.stageConstructors = append(f.stageConstructors, constructor)
}

// Create builds an Orchestrator over the registered phases for one run.
func (f *Factory) Create(state *State) *Orchestrator {
	stages := make([]Stage, 0, len(f.stageConstructors))
	for _, constructor := range f.stageConstructors {
		stages = append(stages, constructor(f.deps))
	}
	return NewOrchestrator(state, stages, f.deps.Logger)
}
