package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{ChunkSize: 2, MaxConcurrency: 2}
}

func makeChannel(id, name string) *models.Channel {
	ch := models.NewChannel(name, "http://cdn.example.com/"+id, 0)
	ch.ID = id
	return ch
}

func TestEnrichCleansNamesAndInfersGenres(t *testing.T) {
	p := New(testConfig(), nil, nil)

	channels := []*models.Channel{
		makeChannel("a", "StreamCast News [Backup]"),
		makeChannel("b", "SportsCentral Racing"),
		makeChannel("c", "PrimeTV One"),
	}

	out, stats, err := p.Enrich(context.Background(), channels)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "StreamCast News", out[0].Name)
	assert.Equal(t, "StreamCast News [Backup]", out[0].OriginalName)
	assert.Equal(t, "News", out[0].Genre)
	assert.Equal(t, "Sports", out[1].Genre)
	assert.Equal(t, DefaultGenre, out[2].Genre)

	assert.Equal(t, 1, stats.NamesCleaned)
	assert.Equal(t, 3, stats.GenresSet)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 0, stats.ChunkFailures)
}

func TestEnrichPreservesExistingGenre(t *testing.T) {
	p := New(testConfig(), nil, nil)

	ch := makeChannel("a", "StreamCast One")
	ch.Genre = "Documentary"

	out, stats, err := p.Enrich(context.Background(), []*models.Channel{ch})
	require.NoError(t, err)
	assert.Equal(t, "Documentary", out[0].Genre)
	assert.Equal(t, 0, stats.GenresSet)
}

func TestEnrichFillsArtwork(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(), NewArtworkGenerator(dir), nil)

	withLogo := makeChannel("a", "StreamCast News")
	withLogo.Logo = "http://logos.example.com/a.png"
	without := makeChannel("b", "CinemaMax Movies")

	out, stats, err := p.Enrich(context.Background(), []*models.Channel{withLogo, without})
	require.NoError(t, err)

	// The sourced logo stays; background and poster are synthesized.
	assert.Equal(t, "http://logos.example.com/a.png", out[0].Logo)
	assert.NotEmpty(t, out[0].Background)
	assert.NotEmpty(t, out[1].Logo)
	assert.FileExists(t, out[1].Logo)
	assert.Equal(t, 2, stats.ArtworkFilled)
}

func TestEnrichChunkFailureKeepsChannels(t *testing.T) {
	// Point the artwork root at a regular file so MkdirAll fails and
	// every chunk errors out.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "artwork")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	p := New(testConfig(), NewArtworkGenerator(filepath.Join(blocked, "nested")), nil)

	ch := makeChannel("a", "StreamCast News [Backup]")
	out, stats, err := p.Enrich(context.Background(), []*models.Channel{ch})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ChunkFailures)
	// The failed chunk keeps its pre-enrichment fields.
	assert.Equal(t, "StreamCast News [Backup]", out[0].Name)
	assert.Empty(t, out[0].Genre)
}

func TestEnrichEmpty(t *testing.T) {
	p := New(testConfig(), nil, nil)
	out, stats, err := p.Enrich(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, stats.Chunks)
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testConfig(), nil, nil)
	_, _, err := p.Enrich(ctx, []*models.Channel{makeChannel("a", "StreamCast News")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"StreamCast News", "StreamCast News"},
		{"StreamCast News [Backup]", "StreamCast News"},
		{"VIP StreamCast | News", "StreamCast News"},
		{"  - StreamCast News -  ", "StreamCast News"},
		{"StreamCast 24/7 Hits", "StreamCast Hits"},
		{"StreamCast News HD", "StreamCast News HD"},
		{"[###]", "[###]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanName(tt.in), "CleanName(%q)", tt.in)
	}
}

func TestInferGenre(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"SportsCentral Futbol", "Sports"},
		{"GOLF Masters", "Sports"},
		{"Canal GOL", "Sports"},
		{"NewsFirst 24h", "News"},
		{"CinemaMax Premiere", "Movies"},
		{"Junior Cartoons", "Kids"},
		{"MusicMax Hits", "Music"},
		{"Nature Documentary", "Documentary"},
		{"Reality Show Plus", "Entertainment"},
		{"DEPORTESTV", "Sports"},
		{"PrimeTV One", DefaultGenre},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferGenre(tt.name), "InferGenre(%q)", tt.name)
	}
}

func TestArtworkDeterministicAndReused(t *testing.T) {
	dir := t.TempDir()
	g := NewArtworkGenerator(dir)

	ch := makeChannel("abc", "StreamCast News")
	require.NoError(t, g.Generate(ch))
	first := ch.Logo
	info1, err := os.Stat(first)
	require.NoError(t, err)

	ch2 := makeChannel("abc", "StreamCast News")
	require.NoError(t, g.Generate(ch2))
	assert.Equal(t, first, ch2.Logo)

	// Existing file reused, not rewritten.
	info2, err := os.Stat(first)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}
