package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidExpression(t *testing.T) {
	_, err := New("not a cron", func(context.Context) error { return nil }, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")
}

func TestValidateCron(t *testing.T) {
	assert.NoError(t, ValidateCron("*/5 * * * *"))
	assert.NoError(t, ValidateCron("0 3 * * 1"))
	assert.Error(t, ValidateCron("61 * * * *"))
	assert.Error(t, ValidateCron("* * *"))
}

func TestNext(t *testing.T) {
	w, err := New("0 3 * * *", func(context.Context) error { return nil }, nil)
	require.NoError(t, err)

	from := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	next := w.Next(from)
	assert.Equal(t, time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC), next)
}

func TestRunExecutesImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	w, err := New("0 0 1 1 *", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate run did not happen")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestRunSurvivesRunError(t *testing.T) {
	calls := 0
	w, err := New("0 0 1 1 *", func(context.Context) error {
		calls++
		return errors.New("boom")
	}, nil)
	require.NoError(t, err)

	// The immediate execution fails; the loop must still reach its
	// waiting state instead of returning the run error.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
