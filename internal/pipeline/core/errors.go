package core

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrNoSources indicates no channel sources were configured.
	ErrNoSources = errors.New("no channel sources configured")

	// ErrPipelineAlreadyRunning indicates a run is already executing.
	ErrPipelineAlreadyRunning = errors.New("pipeline already running")
)

// Category classifies a pipeline error for abort-or-passthrough
// decisions. Configuration, service and filesystem problems abort the
// run; parse, network and processing problems degrade to passthrough
// where the owning phase allows it.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryService       Category = "service"
	CategorySource        Category = "source"
	CategoryParse         Category = "parse"
	CategoryNetwork       Category = "network"
	CategoryProcessing    Category = "processing"
	CategoryFilesystem    Category = "filesystem"
	CategoryInvariant     Category = "invariant"
)

// PipelineError wraps an error with its category.
type PipelineError struct {
	Category Category
	Err      error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Category, e.Err)
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError wraps err with a category. A nil err yields nil.
func NewError(category Category, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{Category: category, Err: err}
}

// Errorf builds a categorized error from a format string.
func Errorf(category Category, format string, args ...any) error {
	return &PipelineError{Category: category, Err: fmt.Errorf(format, args...)}
}

// CategoryOf extracts the category of err, defaulting to service for
// uncategorized errors so unknown failures abort rather than degrade.
func CategoryOf(err error) Category {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryService
}

// IsCritical reports whether an error of this category aborts the run.
func (c Category) IsCritical() bool {
	switch c {
	case CategoryConfiguration, CategoryService, CategorySource, CategoryFilesystem, CategoryInvariant:
		return true
	default:
		return false
	}
}

// StageError wraps an error with phase context.
type StageError struct {
	StageID   string
	StageName string
	Err       error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (%s): %v", e.StageName, e.StageID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError.
func NewStageError(stageID, stageName string, err error) *StageError {
	return &StageError{
		StageID:   stageID,
		StageName: stageName,
		Err:       err,
	}
}
