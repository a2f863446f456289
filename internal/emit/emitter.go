// Package emit writes the run artifacts: the tabular catalog, the
// aggregated playlist, and per-channel playlist fragments. All writes
// go to a temp path first and rename into place, so a cancelled or
// failed run never leaves a truncated artifact behind.
package emit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
)

// Stats summarizes one emission pass.
type Stats struct {
	Channels     int
	Fragments    int
	CatalogPath  string
	PlaylistPath string
	BackupPath   string
}

// Emitter writes the output artifacts for a finished pipeline run.
type Emitter struct {
	catalogPath  string
	playlistPath string
	fragmentsDir string

	enableBackup    bool
	backupRetention int

	logger *slog.Logger
	now    func() time.Time
}

// New creates an emitter from the configuration.
func New(cfg *config.Config, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		catalogPath:     cfg.CatalogPath(),
		playlistPath:    cfg.PlaylistPath(),
		fragmentsDir:    cfg.FragmentsDir(),
		enableBackup:    cfg.EnableBackup,
		backupRetention: cfg.BackupRetention,
		logger:          logger,
		now:             time.Now,
	}
}

// Emit writes all three artifacts in order: catalog, aggregated
// playlist, per-channel fragments. The channels are written in the
// order given; callers run the ordering service first.
func (e *Emitter) Emit(ctx context.Context, channels []*models.Channel) (Stats, error) {
	stats := Stats{
		Channels:     len(channels),
		CatalogPath:  e.catalogPath,
		PlaylistPath: e.playlistPath,
	}

	backupPath, err := e.backupCatalog()
	if err != nil {
		return stats, fmt.Errorf("backing up catalog: %w", err)
	}
	stats.BackupPath = backupPath

	if err := e.writeCatalog(ctx, channels); err != nil {
		return stats, fmt.Errorf("writing catalog: %w", err)
	}

	if err := e.writePlaylist(ctx, channels); err != nil {
		return stats, fmt.Errorf("writing playlist: %w", err)
	}

	fragments, err := e.writeFragments(ctx, channels)
	if err != nil {
		return stats, fmt.Errorf("writing fragments: %w", err)
	}
	stats.Fragments = fragments

	e.logger.Info("artifacts emitted",
		slog.Int("channels", stats.Channels),
		slog.Int("fragments", stats.Fragments),
		slog.String("catalog", e.catalogPath),
		slog.String("playlist", e.playlistPath),
	)
	return stats, nil
}
