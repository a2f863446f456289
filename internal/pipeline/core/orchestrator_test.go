package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
)

// fakeStage scripts one phase for orchestrator tests.
type fakeStage struct {
	id       string
	execute  func(ctx context.Context, state *State) (*StageResult, error)
	executed bool
	cleaned  bool
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeStage) ID() string   { return f.id }
func (f *fakeStage) Name() string { return f.id }

func (f *fakeStage) Execute(ctx context.Context, state *State) (*StageResult, error) {
	f.executed = true
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.execute != nil {
		return f.execute(ctx, state)
	}
	return &StageResult{}, nil
}

func (f *fakeStage) Cleanup(context.Context) error {
	f.cleaned = true
	return nil
}

func newTestState() *State {
	return NewState("run1", "corr1", &config.Config{}, time.Now())
}

func TestExecuteRunsStagesInOrder(t *testing.T) {
	var order []string
	mk := func(id string) *fakeStage {
		return &fakeStage{id: id, execute: func(ctx context.Context, state *State) (*StageResult, error) {
			order = append(order, id)
			return &StageResult{RecordsProcessed: 1}, nil
		}}
	}
	a, b, c := mk("a"), mk("b"), mk("c")

	o := NewOrchestrator(newTestState(), []Stage{a, b, c}, nil)
	result, err := o.Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Len(t, result.StageResults, 3)
	assert.True(t, a.cleaned)
	assert.True(t, c.cleaned)
}

func TestExecuteCollectsCountsAndArtifacts(t *testing.T) {
	emitStage := &fakeStage{id: "emission"}
	emitStage.execute = func(ctx context.Context, state *State) (*StageResult, error) {
		state.Channels = []*models.Channel{
			models.NewChannel("StreamCast News", "http://cdn.example.com/1", 0),
		}
		state.Rejections = append(state.Rejections, Rejection{Phase: "preparation", Reason: "name:banned"})

		catalog := NewArtifact(ArtifactTypeCatalog, emitStage.id).WithFilePath("/data/channels.csv")
		playlist := NewArtifact(ArtifactTypePlaylist, emitStage.id).WithFilePath("/data/playlist.m3u")
		return &StageResult{Artifacts: []Artifact{catalog, playlist}}, nil
	}

	o := NewOrchestrator(newTestState(), []Stage{emitStage}, nil)
	result, err := o.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChannelCount)
	assert.Equal(t, 1, result.RejectedCount)
	assert.Equal(t, "/data/channels.csv", result.CatalogPath)
	assert.Equal(t, "/data/playlist.m3u", result.PlaylistPath)
}

func TestExecuteReportsPhaseTransitions(t *testing.T) {
	var seen []string
	o := NewOrchestrator(newTestState(), []Stage{&fakeStage{id: "a"}, &fakeStage{id: "b"}}, nil)
	o.OnPhase(func(stageID, stageName string) {
		seen = append(seen, stageID)
	})

	_, err := o.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestExecuteAbortsOnStageError(t *testing.T) {
	boom := Errorf(CategorySource, "all origins down")
	failing := &fakeStage{id: "data-loading", execute: func(ctx context.Context, state *State) (*StageResult, error) {
		return nil, boom
	}}
	never := &fakeStage{id: "preparation"}

	o := NewOrchestrator(newTestState(), []Stage{failing, never}, nil)
	result, err := o.Execute(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Success)
	assert.False(t, never.executed)
	assert.True(t, failing.cleaned)

	require.Len(t, result.Errors, 1)
	var stageErr *StageError
	require.ErrorAs(t, result.Errors[0], &stageErr)
	assert.Equal(t, "data-loading", stageErr.StageID)
}

func TestExecuteCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &fakeStage{id: "a", execute: func(ctx context.Context, state *State) (*StageResult, error) {
		cancel()
		return &StageResult{}, nil
	}}
	second := &fakeStage{id: "b"}

	o := NewOrchestrator(newTestState(), []Stage{first, second}, nil)
	_, err := o.Execute(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, second.executed)
}

func TestExecuteRejectsOverlappingRuns(t *testing.T) {
	blocking := &fakeStage{
		id:      "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	first := NewOrchestrator(newTestState(), []Stage{blocking}, nil)
	done := make(chan error, 1)
	go func() {
		_, err := first.Execute(context.Background())
		done <- err
	}()
	<-blocking.started

	second := NewOrchestrator(newTestState(), []Stage{&fakeStage{id: "noop"}}, nil)
	_, err := second.Execute(context.Background())
	assert.ErrorIs(t, err, ErrPipelineAlreadyRunning)

	close(blocking.release)
	require.NoError(t, <-done)
}

func TestErrorCategories(t *testing.T) {
	assert.Nil(t, NewError(CategoryParse, nil))

	err := NewError(CategoryNetwork, errors.New("timeout"))
	assert.Equal(t, CategoryNetwork, CategoryOf(err))

	// Uncategorized errors default to the critical service category.
	assert.Equal(t, CategoryService, CategoryOf(errors.New("mystery")))

	critical := []Category{CategoryConfiguration, CategoryService, CategorySource, CategoryFilesystem, CategoryInvariant}
	for _, c := range critical {
		assert.True(t, c.IsCritical(), string(c))
	}
	for _, c := range []Category{CategoryParse, CategoryNetwork, CategoryProcessing} {
		assert.False(t, c.IsCritical(), string(c))
	}
}

func TestStageErrorWraps(t *testing.T) {
	inner := Errorf(CategoryFilesystem, "disk full")
	err := NewStageError("emission", "Emission", inner)

	assert.Contains(t, err.Error(), "emission")
	assert.Equal(t, CategoryFilesystem, CategoryOf(err))
}
