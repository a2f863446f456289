package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tvforge/tvforge/internal/pipeline"
	"github.com/tvforge/tvforge/internal/scheduler"
	"github.com/tvforge/tvforge/pkg/format"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build the catalog on a recurring schedule",
	Long: `Watch runs the pipeline immediately and then on every occurrence of
the configured cron schedule (schedule.cron, default hourly) until
interrupted. Runs never overlap; a slow run skips missed slots.`,
	RunE: runWatch,
}

func init() {
	addOutputDirFlag(watchCmd.Flags())
	watchCmd.Flags().String("cron", "", "cron schedule override (five fields)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	expr := cfg.Schedule.Cron
	if cmd.Flags().Changed("cron") {
		expr, _ = cmd.Flags().GetString("cron")
	}
	if expr == "" {
		expr = "0 * * * *"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := pipeline.NewCoordinator(cfg, nil)
	watcher, err := scheduler.New(expr, func(ctx context.Context) error {
		_, runErr := coordinator.Run(ctx)
		return runErr
	}, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Watching: %s (%s)\n", format.CronDescription(expr), expr)

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
