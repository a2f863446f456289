// Package summary implements the summary phase: the run report with
// per-phase timings, rejection counts, and process resource usage.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/tvforge/tvforge/internal/pipeline/core"
	"github.com/tvforge/tvforge/internal/pipeline/shared"
	"github.com/tvforge/tvforge/pkg/format"
)

const (
	// StageID is the unique identifier for this phase.
	StageID = "summary"
	// StageName is the human-readable name for this phase.
	StageName = "Summary"
)

// Stage logs the consolidated run report.
type Stage struct {
	shared.BaseStage
	logger *slog.Logger
}

// New creates a new summary stage.
func New(logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		logger:    logger.With("stage", StageID),
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return New(deps.Logger)
	}
}

// Execute logs the run totals and resource usage. Resource probes are
// best-effort; their failures never affect the run.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()
	result.RecordsProcessed = len(state.Channels)

	rejectionsByPhase := make(map[string]int)
	for _, rej := range state.Rejections {
		rejectionsByPhase[rej.Phase]++
	}

	attrs := []any{
		slog.String("run_id", state.RunID),
		slog.Int("channels", len(state.Channels)),
		slog.Int("rejections", len(state.Rejections)),
		slog.Int("passthrough_errors", len(state.Errors)),
		slog.Duration("elapsed", state.Duration()),
	}
	for phase, count := range rejectionsByPhase {
		attrs = append(attrs, slog.Int("rejected_"+phase, count))
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	attrs = append(attrs,
		slog.String("heap_alloc", format.Bytes(memStats.HeapAlloc)),
		slog.Int("goroutines", runtime.NumGoroutine()),
	)

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if cpuPct, err := proc.CPUPercentWithContext(ctx); err == nil {
			attrs = append(attrs, slog.String("cpu_percent", format.Percentage(cpuPct, 1)))
		}
		if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
			attrs = append(attrs, slog.String("rss", format.Bytes(memInfo.RSS)))
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		attrs = append(attrs, slog.String("system_mem_percent", format.Percentage(vm.UsedPercent, 1)))
	}

	s.logger.InfoContext(ctx, "run summary", attrs...)

	result.Message = fmt.Sprintf("%d channels, %d rejections", len(state.Channels), len(state.Rejections))
	return result, nil
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
