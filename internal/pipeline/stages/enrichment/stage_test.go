package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/enrich"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/pipeline/core"
)

func newStage(cfg *config.Config) *Stage {
	return New(enrich.New(cfg, nil, nil), nil)
}

func newState(cfg *config.Config, channels ...*models.Channel) *core.State {
	state := core.NewState("run1", "corr1", cfg, time.Now())
	state.Channels = channels
	return state
}

func makeChannel(id, name string, index int) *models.Channel {
	ch := models.NewChannel(name, "http://cdn.example.com/"+id, index)
	ch.ID = id
	return ch
}

func TestExecuteEnrichesWorkingSet(t *testing.T) {
	cfg := &config.Config{ChunkSize: 2, MaxConcurrency: 2}
	stage := newStage(cfg)

	state := newState(cfg,
		makeChannel("a", "StreamCast News [Backup]", 0),
		makeChannel("b", "SportsCentral Racing", 1),
	)

	result, err := stage.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, state.Channels, 2)
	assert.Equal(t, "StreamCast News", state.Channels[0].Name)
	assert.Equal(t, "News", state.Channels[0].Genre)
	assert.Equal(t, "Sports", state.Channels[1].Genre)

	assert.Equal(t, 2, result.RecordsProcessed)
	assert.Positive(t, result.RecordsModified)
	assert.Empty(t, state.Errors)
}

func TestExecuteEmptySet(t *testing.T) {
	cfg := &config.Config{ChunkSize: 2, MaxConcurrency: 2}
	state := newState(cfg)

	result, err := newStage(cfg).Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordsProcessed)
	assert.Empty(t, state.Channels)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{ChunkSize: 2, MaxConcurrency: 2}
	state := newState(cfg, makeChannel("a", "StreamCast News", 0))

	_, err := newStage(cfg).Execute(ctx, state)
	assert.ErrorIs(t, err, context.Canceled)
}
