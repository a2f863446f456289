package emit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/tvforge/tvforge/internal/models"
)

// catalogHeader is the fixed column order of the tabular catalog.
var catalogHeader = []string{
	"id", "name", "streamUrl", "logo", "genre",
	"country", "language", "quality", "type", "isActive",
}

const backupTimeLayout = "20060102-150405"

// writeCatalog emits the delimited catalog. encoding/csv quotes fields
// containing the delimiter, so names with commas round-trip.
func (e *Emitter) writeCatalog(ctx context.Context, channels []*models.Channel) error {
	return writeAtomic(ctx, e.catalogPath, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(catalogHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		for _, ch := range channels {
			record := []string{
				ch.ID,
				ch.Name,
				ch.StreamURL,
				ch.Logo,
				ch.Genre,
				ch.Country,
				ch.Language,
				string(ch.Quality),
				ch.Type,
				strconv.FormatBool(ch.IsActive),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("writing record %q: %w", ch.ID, err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// backupCatalog renames an existing catalog aside with a timestamp
// suffix before the new one overwrites it, then prunes backups beyond
// the retention count. Returns the backup path, or "" when nothing was
// backed up.
func (e *Emitter) backupCatalog() (string, error) {
	if !e.enableBackup {
		return "", nil
	}
	if _, err := os.Stat(e.catalogPath); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	backupPath := fmt.Sprintf("%s.%s.bak", e.catalogPath, e.now().Format(backupTimeLayout))
	if err := os.Rename(e.catalogPath, backupPath); err != nil {
		return "", err
	}
	if err := e.pruneBackups(); err != nil {
		return backupPath, err
	}
	return backupPath, nil
}

// pruneBackups deletes the oldest backups beyond the retention count.
// The timestamp layout sorts lexically, so name order is age order.
func (e *Emitter) pruneBackups() error {
	if e.backupRetention <= 0 {
		return nil
	}
	backups, err := filepath.Glob(e.catalogPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(backups) <= e.backupRetention {
		return nil
	}
	sort.Strings(backups)
	for _, stale := range backups[:len(backups)-e.backupRetention] {
		if err := os.Remove(stale); err != nil {
			return err
		}
	}
	return nil
}
