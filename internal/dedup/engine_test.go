package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		NameSimilarityThreshold: 0.95,
		UrlSimilarityThreshold:  0.85,
		DedupStrategy:           string(StrategyFirst),
	}
}

func makeChannel(id, name, url string, index int) *models.Channel {
	ch := models.NewChannel(name, url, index)
	ch.ID = id
	return ch
}

type fakeProber struct {
	alive map[string]bool
	calls int
}

func (p *fakeProber) ProbeQuick(_ context.Context, url string) bool {
	p.calls++
	return p.alive[url]
}

func TestDeduplicateExactURL(t *testing.T) {
	e := New(testConfig(), nil, nil, nil)

	// Same stream after URL normalization: case and default port.
	channels := []*models.Channel{
		makeChannel("a", "StreamCast News", "http://CDN.example.com:80/live/1", 0),
		makeChannel("b", "Totally Different Name", "http://cdn.example.com/live/1", 1),
		makeChannel("c", "Other Channel", "http://cdn.example.com/live/2", 2),
	}

	result, err := e.Deduplicate(context.Background(), channels)
	require.NoError(t, err)

	assert.Len(t, result.Channels, 2)
	assert.Equal(t, "a", result.Channels[0].ID)
	assert.Equal(t, "c", result.Channels[1].ID)

	require.Len(t, result.Removed, 1)
	assert.Equal(t, "b", result.Removed[0].Channel.ID)
	assert.Equal(t, "a", result.Removed[0].KeptID)

	assert.Equal(t, 3, result.Stats.Input)
	assert.Equal(t, 2, result.Stats.Retained)
	assert.Equal(t, 2, result.Stats.Clusters)
	assert.Equal(t, 1, result.Stats.DuplicatesRemoved)
}

func TestDeduplicateSimilarity(t *testing.T) {
	e := New(testConfig(), nil, nil, nil)

	// Canonical names are identical once the quality token folds away;
	// URLs differ in a single character.
	channels := []*models.Channel{
		makeChannel("a", "StreamCast News HD", "http://cdn.example.com/streams/live/channel-news-1", 0),
		makeChannel("b", "StreamCast News", "http://cdn.example.com/streams/live/channel-news-2", 1),
	}

	result, err := e.Deduplicate(context.Background(), channels)
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	assert.Equal(t, "a", result.Channels[0].ID)
	assert.Equal(t, 1, result.Stats.DuplicatesRemoved)
}

func TestDeduplicateSimilarNamesDistantURLs(t *testing.T) {
	e := New(testConfig(), nil, nil, nil)

	// Same name, unrelated hosts: regional feeds stay separate.
	channels := []*models.Channel{
		makeChannel("a", "StreamCast News", "http://east.provider-one.example/live/news", 0),
		makeChannel("b", "StreamCast News", "http://tv.other-network.example:8080/x/abc123", 1),
	}

	result, err := e.Deduplicate(context.Background(), channels)
	require.NoError(t, err)
	assert.Len(t, result.Channels, 2)
	assert.Empty(t, result.Removed)
}

func TestDeduplicateHdUpgrade(t *testing.T) {
	cfg := testConfig()
	cfg.EnableHdUpgrade = true
	e := New(cfg, nil, nil, nil)

	channels := []*models.Channel{
		makeChannel("sd", "StreamCast News SD", "http://cdn.example.com/live/1", 0),
		makeChannel("fhd", "StreamCast News 1080p", "http://cdn.example.com/live/1", 1),
	}

	result, err := e.Deduplicate(context.Background(), channels)
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	assert.Equal(t, "fhd", result.Channels[0].ID)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, "sd", result.Removed[0].Channel.ID)
}

func TestDeduplicateWithoutHdUpgradeKeepsFirst(t *testing.T) {
	e := New(testConfig(), nil, nil, nil)

	channels := []*models.Channel{
		makeChannel("sd", "StreamCast News SD", "http://cdn.example.com/live/1", 0),
		makeChannel("fhd", "StreamCast News 1080p", "http://cdn.example.com/live/1", 1),
	}

	result, err := e.Deduplicate(context.Background(), channels)
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	assert.Equal(t, "sd", result.Channels[0].ID)
}

func TestDeduplicateSourcePriority(t *testing.T) {
	cfg := testConfig()
	cfg.PreserveSourcePriority = true
	order := map[string]int{"playlist_url[0]": 0, "local_file[0]": 1}
	e := New(cfg, order, nil, nil)

	preferred := makeChannel("b", "StreamCast News", "http://cdn.example.com/live/1", 1)
	preferred.Source = "playlist_url[0]"
	other := makeChannel("a", "StreamCast News", "http://cdn.example.com/live/1", 0)
	other.Source = "local_file[0]"

	result, err := e.Deduplicate(context.Background(), []*models.Channel{other, preferred})
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	assert.Equal(t, "b", result.Channels[0].ID)
}

func TestDeduplicateSourcePriorityDisabled(t *testing.T) {
	// Without preserveSourcePriority the order map is ignored and the
	// earliest record wins.
	order := map[string]int{"playlist_url[0]": 0, "local_file[0]": 1}
	e := New(testConfig(), order, nil, nil)

	preferred := makeChannel("b", "StreamCast News", "http://cdn.example.com/live/1", 1)
	preferred.Source = "playlist_url[0]"
	other := makeChannel("a", "StreamCast News", "http://cdn.example.com/live/1", 0)
	other.Source = "local_file[0]"

	result, err := e.Deduplicate(context.Background(), []*models.Channel{other, preferred})
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	assert.Equal(t, "a", result.Channels[0].ID)
}

func TestDeduplicatePrioritizeWorking(t *testing.T) {
	cfg := testConfig()
	cfg.DedupStrategy = string(StrategyPrioritizeWorking)
	prober := &fakeProber{alive: map[string]bool{
		"http://cdn.example.com/streams/live/channel-news-2": true,
	}}
	e := New(cfg, nil, prober, nil)

	channels := []*models.Channel{
		makeChannel("dead", "StreamCast News", "http://cdn.example.com/streams/live/channel-news-1", 0),
		makeChannel("alive", "StreamCast News", "http://cdn.example.com/streams/live/channel-news-2", 1),
	}

	result, err := e.Deduplicate(context.Background(), channels)
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	assert.Equal(t, "alive", result.Channels[0].ID)
	assert.Equal(t, 2, prober.calls)
}

func TestDeduplicateStableOrder(t *testing.T) {
	e := New(testConfig(), nil, nil, nil)

	channels := []*models.Channel{
		makeChannel("c", "Cinema Max", "http://cdn.example.com/live/30", 0),
		makeChannel("a", "StreamCast News", "http://cdn.example.com/live/10", 1),
		makeChannel("a2", "StreamCast News", "http://cdn.example.com/live/10", 2),
		makeChannel("b", "MusicMax Hits", "http://cdn.example.com/live/20", 3),
	}

	result, err := e.Deduplicate(context.Background(), channels)
	require.NoError(t, err)

	require.Len(t, result.Channels, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{
		result.Channels[0].ID, result.Channels[1].ID, result.Channels[2].ID,
	})
}

func TestDeduplicateEmpty(t *testing.T) {
	e := New(testConfig(), nil, nil, nil)

	result, err := e.Deduplicate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Channels)
	assert.Equal(t, float64(1), result.Stats.Efficiency)
}

func TestDeduplicateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(testConfig(), nil, nil, nil)
	_, err := e.Deduplicate(ctx, []*models.Channel{
		makeChannel("a", "StreamCast News", "http://cdn.example.com/live/1", 0),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
