package convert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		ConvertHttpsToHttp:        true,
		ValidateHttpConversion:    true,
		HttpConversionTimeoutSec:  5,
		HttpConversionConcurrency: 4,
	}
}

func testClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.RetryAttempts = 0
	cfg.Timeout = 5 * time.Second
	return httpclient.New(cfg)
}

// httpsFor rewrites a test server URL to https so the channel becomes
// a conversion candidate; the converter swaps it back to the live
// http endpoint.
func httpsFor(url string) string {
	return "https://" + strings.TrimPrefix(url, "http://")
}

func makeChannel(id, url string) *models.Channel {
	ch := models.NewChannel("StreamCast News", url, 0)
	ch.ID = id
	return ch
}

func TestConvertDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.ConvertHttpsToHttp = false
	c := New(cfg, testClient(), nil)

	assert.False(t, c.Enabled())

	result, err := c.Convert(context.Background(), []*models.Channel{
		makeChannel("a", "https://cdn.example.com/live/1"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Updates)
}

func TestConvertSkipsHTTP(t *testing.T) {
	c := New(testConfig(), testClient(), nil)

	result, err := c.Convert(context.Background(), []*models.Channel{
		makeChannel("a", "http://cdn.example.com/live/1"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Updates)
	assert.Equal(t, 0, result.Stats.Candidates)
}

func TestConvertWithoutValidation(t *testing.T) {
	cfg := testConfig()
	cfg.ValidateHttpConversion = false
	c := New(cfg, testClient(), nil)

	result, err := c.Convert(context.Background(), []*models.Channel{
		makeChannel("a", "https://cdn.example.com/live/1"),
		makeChannel("b", "http://cdn.example.com/live/2"),
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a": "http://cdn.example.com/live/1"}, result.Updates)
	assert.Equal(t, 1, result.Stats.Candidates)
	assert.Equal(t, 1, result.Stats.Converted)
	assert.Equal(t, 0, result.Stats.Probed)
}

func TestConvertProbeVerified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/alive") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(), testClient(), nil)

	result, err := c.Convert(context.Background(), []*models.Channel{
		makeChannel("good", httpsFor(srv.URL)+"/alive/stream"),
		makeChannel("bad", httpsFor(srv.URL)+"/dead/stream"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.Candidates)
	assert.Equal(t, 2, result.Stats.Probed)
	assert.Equal(t, 1, result.Stats.Converted)
	require.Contains(t, result.Updates, "good")
	assert.Equal(t, "http://"+strings.TrimPrefix(srv.URL, "http://")+"/alive/stream", result.Updates["good"])
	assert.NotContains(t, result.Updates, "bad")
}

func TestConvertHeadFallsBackToGet(t *testing.T) {
	var sawGet atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testConfig(), testClient(), nil)

	result, err := c.Convert(context.Background(), []*models.Channel{
		makeChannel("a", httpsFor(srv.URL)+"/stream"),
	})
	require.NoError(t, err)

	assert.True(t, sawGet.Load())
	assert.Contains(t, result.Updates, "a")
}

func TestConvertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testConfig(), testClient(), nil)
	_, err := c.Convert(ctx, []*models.Channel{
		makeChannel("a", "https://cdn.example.com/live/1"),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
