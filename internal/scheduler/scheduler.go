// Package scheduler drives watch mode: recurring pipeline runs on a
// cron schedule with graceful shutdown between runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) error

// parser accepts standard five-field cron expressions.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCron checks a cron expression without building a watcher.
func ValidateCron(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// Watcher repeatedly executes a run function on a cron schedule. Runs
// never overlap: the next occurrence is computed after the current run
// finishes, so a slow run skips missed slots instead of stacking.
type Watcher struct {
	schedule cron.Schedule
	expr     string
	run      RunFunc
	logger   *slog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates a watcher. The expression uses the standard five cron
// fields (minute hour dom month dow).
func New(expr string, run RunFunc, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &Watcher{
		schedule: schedule,
		expr:     expr,
		run:      run,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Next returns the first scheduled occurrence after the given time.
func (w *Watcher) Next(from time.Time) time.Time {
	return w.schedule.Next(from)
}

// Run executes immediately, then on every scheduled occurrence until
// the context is cancelled. Run errors are logged, not fatal: a single
// failed run must not kill the watch loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watch mode started", slog.String("cron", w.expr))

	w.execute(ctx)

	for {
		next := w.Next(w.now())
		w.logger.Info("next run scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("watch mode stopped")
			return ctx.Err()
		case <-timer.C:
		}

		w.execute(ctx)
	}
}

// execute runs one iteration, swallowing everything except
// cancellation.
func (w *Watcher) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := w.now()
	if err := w.run(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		w.logger.Error("scheduled run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return
	}
	w.logger.Info("scheduled run finished",
		slog.Duration("duration", time.Since(start)),
	)
}
