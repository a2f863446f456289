package probestore

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/models"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache", "probes.db"), ttl, "silent", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func verdict(url string, checkedAt time.Time) models.ValidationVerdict {
	return models.ValidationVerdict{
		URL:         url,
		Method:      http.MethodHead,
		Outcome:     models.OutcomeReachable,
		StatusCode:  http.StatusOK,
		ContentType: "application/vnd.apple.mpegurl",
		Duration:    120 * time.Millisecond,
		CheckedAt:   checkedAt,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	want := verdict("http://cdn.example.com/live/1", time.Now())
	require.NoError(t, store.Put(ctx, want))

	got, ok := store.Get(ctx, want.URL, http.MethodHead)
	require.True(t, ok)
	assert.Equal(t, want.URL, got.URL)
	assert.Equal(t, models.OutcomeReachable, got.Outcome)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, want.ContentType, got.ContentType)
	assert.Equal(t, want.Duration, got.Duration)
}

func TestStoreMiss(t *testing.T) {
	store := openTestStore(t, time.Hour)

	_, ok := store.Get(context.Background(), "http://unknown.example/stream", http.MethodHead)
	assert.False(t, ok)
}

func TestStoreMethodIsPartOfKey(t *testing.T) {
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, verdict("http://cdn.example.com/live/1", time.Now())))

	_, ok := store.Get(ctx, "http://cdn.example.com/live/1", http.MethodGet)
	assert.False(t, ok)
}

func TestStoreUpsert(t *testing.T) {
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	url := "http://cdn.example.com/live/1"
	require.NoError(t, store.Put(ctx, verdict(url, time.Now())))

	updated := verdict(url, time.Now())
	updated.Outcome = models.OutcomeUnreachable
	updated.StatusCode = http.StatusNotFound
	require.NoError(t, store.Put(ctx, updated))

	got, ok := store.Get(ctx, url, http.MethodHead)
	require.True(t, ok)
	assert.Equal(t, models.OutcomeUnreachable, got.Outcome)
	assert.Equal(t, http.StatusNotFound, got.StatusCode)
}

func TestStoreTTLExpiry(t *testing.T) {
	store := openTestStore(t, time.Minute)
	ctx := context.Background()

	url := "http://cdn.example.com/live/1"
	require.NoError(t, store.Put(ctx, verdict(url, time.Now().Add(-2*time.Minute))))

	_, ok := store.Get(ctx, url, http.MethodHead)
	assert.False(t, ok)
}

func TestStorePrune(t *testing.T) {
	store := openTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, verdict("http://cdn.example.com/old", time.Now().Add(-time.Hour))))
	require.NoError(t, store.Put(ctx, verdict("http://cdn.example.com/fresh", time.Now())))

	removed, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, ok := store.Get(ctx, "http://cdn.example.com/fresh", http.MethodHead)
	assert.True(t, ok)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probes.db")
	ctx := context.Background()

	store, err := Open(path, time.Hour, "silent", nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, verdict("http://cdn.example.com/live/1", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := Open(path, time.Hour, "silent", nil)
	require.NoError(t, err)
	defer reopened.Close()

	_, ok := reopened.Get(ctx, "http://cdn.example.com/live/1", http.MethodHead)
	assert.True(t, ok)
}
