// Package probestore persists stream probe verdicts in SQLite so
// reachability survives across runs. The in-memory validation cache
// fronts this store; entries past the TTL are ignored and pruned.
package probestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tvforge/tvforge/internal/models"
)

// Record is one persisted probe verdict, keyed by (URL, method).
type Record struct {
	URL         string `gorm:"primaryKey;size:2048"`
	Method      string `gorm:"primaryKey;size:8"`
	Outcome     string `gorm:"size:32;not null"`
	StatusCode  int
	ContentType string `gorm:"size:255"`
	DurationMs  int64
	Error       string
	CheckedAt   time.Time `gorm:"index;not null"`
}

// TableName sets the SQLite table name.
func (Record) TableName() string {
	return "probe_verdicts"
}

// Store is a SQLite-backed verdict store.
type Store struct {
	db     *gorm.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Open creates or opens the store at path. WAL mode and a busy timeout
// are applied through DSN pragmas so every pooled connection gets them.
func Open(path string, ttl time.Duration, logLevel string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=busy_timeout(10000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 newGormLogger(logLevel, log),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening probe store: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating probe store: %w", err)
	}

	store := &Store{db: db, ttl: ttl, logger: log}
	log.Info("probe store opened",
		slog.String("path", path),
		slog.Duration("ttl", ttl),
	)
	return store, nil
}

// Get returns the stored verdict for (url, method) when present and
// within the TTL.
func (s *Store) Get(ctx context.Context, url, method string) (models.ValidationVerdict, bool) {
	var record Record
	err := s.db.WithContext(ctx).
		Where("url = ? AND method = ?", url, method).
		First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("probe store read failed", slog.String("error", err.Error()))
		}
		return models.ValidationVerdict{}, false
	}
	if time.Since(record.CheckedAt) > s.ttl {
		return models.ValidationVerdict{}, false
	}
	return models.ValidationVerdict{
		URL:         record.URL,
		Method:      record.Method,
		Outcome:     models.ProbeOutcome(record.Outcome),
		StatusCode:  record.StatusCode,
		ContentType: record.ContentType,
		Duration:    time.Duration(record.DurationMs) * time.Millisecond,
		Err:         record.Error,
		CheckedAt:   record.CheckedAt,
	}, true
}

// Put upserts a verdict.
func (s *Store) Put(ctx context.Context, verdict models.ValidationVerdict) error {
	record := Record{
		URL:         verdict.URL,
		Method:      verdict.Method,
		Outcome:     string(verdict.Outcome),
		StatusCode:  verdict.StatusCode,
		ContentType: verdict.ContentType,
		DurationMs:  verdict.Duration.Milliseconds(),
		Error:       verdict.Err,
		CheckedAt:   verdict.CheckedAt,
	}
	return s.db.WithContext(ctx).Save(&record).Error
}

// Prune deletes every record past the TTL. Called at the start of a
// run so the table does not grow without bound.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.ttl)
	result := s.db.WithContext(ctx).
		Where("checked_at < ?", cutoff).
		Delete(&Record{})
	if result.Error != nil {
		return 0, fmt.Errorf("pruning probe store: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Debug("pruned expired probe verdicts",
			slog.Int64("removed", result.RowsAffected),
		)
	}
	return result.RowsAffected, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
