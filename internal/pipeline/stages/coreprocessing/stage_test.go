package coreprocessing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/convert"
	"github.com/tvforge/tvforge/internal/dedup"
	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/validate"
)

func baseConfig() *config.Config {
	return &config.Config{
		NameSimilarityThreshold:    0.95,
		UrlSimilarityThreshold:     0.85,
		DedupStrategy:              "first",
		HttpConversionTimeoutSec:   5,
		HttpConversionConcurrency:  4,
		StreamValidationTimeoutSec: 5,
		ValidationConcurrency:      4,
		ValidationBatchSize:        10,
		ValidationCacheSize:        100,
		ValidationCacheTtl:         config.Duration(time.Minute),
	}
}

func newStage(cfg *config.Config) *Stage {
	clientCfg := httpclient.DefaultConfig()
	clientCfg.RetryAttempts = 0
	client := httpclient.New(clientCfg)

	return New(
		dedup.New(cfg, nil, nil, nil),
		convert.New(cfg, client, nil),
		validate.New(cfg, client, nil, nil),
		nil,
	)
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

func TestExecuteDeduplicates(t *testing.T) {
	cfg := baseConfig()
	stage := newStage(cfg)

	state := newState(cfg,
		makeChannel("a", "StreamCast News", "http://cdn.example.com/live/1", 0),
		makeChannel("b", "StreamCast News HD", "http://cdn.example.com/live/1", 1),
		makeChannel("c", "ViewMedia One", "http://cdn.example.com/live/2", 2),
	)

	result, err := stage.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, state.Channels, 2)
	assert.Equal(t, "a", state.Channels[0].ID)
	assert.Equal(t, "c", state.Channels[1].ID)

	require.Len(t, state.Rejections, 1)
	assert.Equal(t, StageID, state.Rejections[0].Phase)
	assert.Equal(t, "b", state.Rejections[0].Channel.ID)
	assert.Equal(t, 3, result.RecordsProcessed)
	assert.Equal(t, 1, result.RecordsModified)
	assert.Empty(t, state.Errors)
}

func TestExecuteAppliesConversionUpdates(t *testing.T) {
	cfg := baseConfig()
	cfg.ConvertHttpsToHttp = true
	// No probing; every candidate converts.
	cfg.ValidateHttpConversion = false
	stage := newStage(cfg)

	state := newState(cfg,
		makeChannel("a", "StreamCast News", "https://cdn.example.com/live/1", 0),
		makeChannel("b", "ViewMedia One", "http://cdn.example.com/live/2", 1),
	)

	_, err := stage.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, state.Channels, 2)
	assert.Equal(t, "http://cdn.example.com/live/1", state.Channels[0].StreamURL)
	assert.Equal(t, "http://cdn.example.com/live/2", state.Channels[1].StreamURL)
}

func TestExecuteValidationRemoves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/alive") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.EnableStreamValidation = true
	cfg.RemoveInvalidStreams = true
	stage := newStage(cfg)

	state := newState(cfg,
		makeChannel("good", "StreamCast News", srv.URL+"/alive", 0),
		makeChannel("bad", "ViewMedia One", srv.URL+"/dead", 1),
	)

	result, err := stage.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, state.Channels, 1)
	assert.Equal(t, "good", state.Channels[0].ID)
	require.Len(t, state.Rejections, 1)
	assert.Equal(t, "bad", state.Rejections[0].Channel.ID)
	assert.True(t, strings.HasPrefix(state.Rejections[0].Reason, "validation:"))
	assert.Equal(t, 1, result.RecordsModified)
}

func TestExecuteConversionCollisionViolatesInvariant(t *testing.T) {
	cfg := baseConfig()
	cfg.ConvertHttpsToHttp = true
	cfg.ValidateHttpConversion = false
	stage := newStage(cfg)

	// Distinct after dedup (schemes differ), identical after the swap.
	state := newState(cfg,
		makeChannel("a", "StreamCast News", "https://cdn.example.com/live/1", 0),
		makeChannel("b", "ViewMedia One", "http://cdn.example.com/live/1", 1),
	)

	_, err := stage.Execute(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, core.CategoryInvariant, core.CategoryOf(err))
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := baseConfig()
	stage := newStage(cfg)
	state := newState(cfg, makeChannel("a", "StreamCast News", "http://cdn.example.com/live/1", 0))

	_, err := stage.Execute(ctx, state)
	assert.ErrorIs(t, err, context.Canceled)
}
