package emission

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/emit"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/ordering"
	"github.com/tvforge/tvforge/internal/pipeline/core"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		ProjectRoot:           dir,
		ValidatedCatalogPath:  filepath.Join(dir, "tv.csv"),
		PlaylistOutputPath:    filepath.Join(dir, "channels.m3u"),
		PerChannelPlaylistDir: filepath.Join(dir, "m3u8"),
		PriorityChannels:      []string{"StreamCast News"},
	}
}

func newStage(cfg *config.Config) *Stage {
	return New(ordering.New(cfg, nil), emit.New(cfg, nil), nil)
}

func newState(cfg *config.Config, channels ...*models.Channel) *core.State {
	state := core.NewState("run1", "corr1", cfg, time.Now())
	state.Channels = channels
	return state
}

func makeChannel(id, name, url string, index int) *models.Channel {
	ch := models.NewChannel(name, url, index)
	ch.ID = id
	return ch
}

func TestExecuteOrdersAndEmits(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	stage := newStage(cfg)

	state := newState(cfg,
		makeChannel("a", "ViewMedia One", "http://cdn.example.com/1", 0),
		makeChannel("b", "StreamCast News", "http://cdn.example.com/2", 1),
	)

	result, err := stage.Execute(context.Background(), state)
	require.NoError(t, err)

	// Priority name moves to the front of the emitted sequence.
	require.Len(t, state.Channels, 2)
	assert.Equal(t, "b", state.Channels[0].ID)
	assert.Equal(t, 1, result.RecordsModified)

	for _, name := range []string{"tv.csv", "channels.m3u"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, statErr, name)
	}
}

func TestExecuteReportsArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	stage := newStage(cfg)

	state := newState(cfg,
		makeChannel("a", "ViewMedia One", "http://cdn.example.com/1", 0),
	)

	result, err := stage.Execute(context.Background(), state)
	require.NoError(t, err)

	byType := make(map[core.ArtifactType]core.Artifact)
	for _, artifact := range result.Artifacts {
		byType[artifact.Type] = artifact
	}

	catalog, ok := byType[core.ArtifactTypeCatalog]
	require.True(t, ok)
	assert.Equal(t, cfg.ValidatedCatalogPath, catalog.FilePath)
	assert.Equal(t, 1, catalog.RecordCount)

	playlist, ok := byType[core.ArtifactTypePlaylist]
	require.True(t, ok)
	assert.Equal(t, cfg.PlaylistOutputPath, playlist.FilePath)

	fragments, ok := byType[core.ArtifactTypeFragments]
	require.True(t, ok)
	assert.Equal(t, 1, fragments.RecordCount)
}

func TestExecuteWriteFailureIsFilesystemError(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	// Catalog path points at a directory, so the write must fail.
	cfg.ValidatedCatalogPath = dir
	stage := newStage(cfg)

	state := newState(cfg,
		makeChannel("a", "ViewMedia One", "http://cdn.example.com/1", 0),
	)

	_, err := stage.Execute(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, core.CategoryFilesystem, core.CategoryOf(err))
}
