// Package core provides the pipeline orchestration framework: the
// phase interface, the shared run state, and the orchestrator that
// sequences phases and consolidates their results.
package core

import (
	"context"
	"time"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
)

// Stage represents a single phase of the catalog build.
type Stage interface {
	// ID returns a unique identifier for the phase (e.g. "data-loading").
	ID() string

	// Name returns a human-readable name (e.g. "Data Loading").
	Name() string

	// Execute performs the phase's work against the shared state.
	Execute(ctx context.Context, state *State) (*StageResult, error)

	// Cleanup runs after execution, on success and on failure.
	Cleanup(ctx context.Context) error
}

// State holds all data shared between pipeline phases.
type State struct {
	// RunID uniquely identifies this pipeline run.
	RunID string

	// CorrelationID ties log lines of one run together across services.
	CorrelationID string

	// Config is the resolved run configuration.
	Config *config.Config

	// ReferenceTime anchors synthesized ids and backup names. A pinned
	// reference time makes two runs over identical inputs byte-identical.
	ReferenceTime time.Time

	// Channels is the working set, owned by whichever phase is running.
	Channels []*models.Channel

	// Rejections collects records dropped by filtering and validation,
	// with the rule or verdict that removed them.
	Rejections []Rejection

	// TempDir is the scratch directory for intermediate files.
	TempDir string

	// StartTime records when the run began.
	StartTime time.Time

	// Errors collects non-fatal errors surfaced by passthrough fallbacks.
	Errors []error

	// Artifacts holds the output artifacts produced per phase.
	Artifacts map[string][]Artifact

	// Metadata stores arbitrary phase-specific data.
	Metadata map[string]any
}

// Rejection records one removed channel and why.
type Rejection struct {
	Channel *models.Channel
	Phase   string
	Reason  string
}

// NewState creates the state for one run.
func NewState(runID, correlationID string, cfg *config.Config, refTime time.Time) *State {
	return &State{
		RunID:         runID,
		CorrelationID: correlationID,
		Config:        cfg,
		ReferenceTime: refTime,
		StartTime:     time.Now(),
		Artifacts:     make(map[string][]Artifact),
		Metadata:      make(map[string]any),
	}
}

// AddError records a non-fatal error.
func (s *State) AddError(err error) {
	if err != nil {
		s.Errors = append(s.Errors, err)
	}
}

// HasErrors reports whether any non-fatal errors were recorded.
func (s *State) HasErrors() bool {
	return len(s.Errors) > 0
}

// Duration returns the elapsed time since the run started.
func (s *State) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// SetMetadata stores a value in the metadata map.
func (s *State) SetMetadata(key string, value any) {
	s.Metadata[key] = value
}

// GetMetadata retrieves a value from the metadata map.
func (s *State) GetMetadata(key string) (any, bool) {
	v, ok := s.Metadata[key]
	return v, ok
}

// AddArtifact records an artifact produced by a phase.
func (s *State) AddArtifact(stageID string, artifact Artifact) {
	s.Artifacts[stageID] = append(s.Artifacts[stageID], artifact)
}

// StageResult contains the outcome of one phase execution.
type StageResult struct {
	// Artifacts produced by this phase.
	Artifacts []Artifact

	// RecordsProcessed is the count of items the phase consumed.
	RecordsProcessed int

	// RecordsModified is the count of items the phase changed or removed.
	RecordsModified int

	// Duration is the execution time, set by the orchestrator.
	Duration time.Duration

	// Message is an optional summary line.
	Message string
}

// Result represents the outcome of a full pipeline run.
type Result struct {
	// Success indicates the run completed without a critical failure.
	Success bool

	// RunID identifies the run this result belongs to.
	RunID string

	// ChannelCount is the number of channels in the emitted catalog.
	ChannelCount int

	// RejectedCount is the number of channels removed along the way.
	RejectedCount int

	// Duration is the total execution time.
	Duration time.Duration

	// StageResults contains the per-phase results, keyed by stage ID.
	StageResults map[string]*StageResult

	// Errors contains critical and passthrough errors that occurred.
	Errors []error

	// CatalogPath is the emitted tabular catalog.
	CatalogPath string

	// PlaylistPath is the emitted aggregated playlist.
	PlaylistPath string
}
