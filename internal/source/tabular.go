package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tvforge/tvforge/internal/models"
)

// TabularRepository loads channels from a delimited file with a header
// row. Column names are normalized, so stream_url, streamUrl and
// Stream-URL all resolve to the same attribute; unknown columns are
// preserved in channel metadata.
type TabularRepository struct {
	path   string
	logger *slog.Logger

	initialized bool
	channels    []*models.Channel
	skipped     int
}

// NewTabularRepository creates a repository reading the given file.
func NewTabularRepository(path string, logger *slog.Logger) *TabularRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &TabularRepository{path: path, logger: logger}
}

// Kind implements Repository.
func (r *TabularRepository) Kind() models.SourceKind {
	return models.SourceTabular
}

// Initialize reads and parses the file. Malformed rows are skipped
// with a warning, never fatal.
func (r *TabularRepository) Initialize(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening tabular source %s: %w", r.path, err)
	}
	defer f.Close()

	channels, skipped, err := r.parse(ctx, f)
	if err != nil {
		return err
	}
	r.channels = channels
	r.skipped = skipped
	r.initialized = true

	r.logger.Info("tabular source loaded",
		slog.String("path", r.path),
		slog.Int("channels", len(channels)),
		slog.Int("skipped", skipped),
	)
	return nil
}

// Channels implements Repository.
func (r *TabularRepository) Channels(ctx context.Context) ([]*models.Channel, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	return r.channels, nil
}

// Count implements Repository.
func (r *TabularRepository) Count(ctx context.Context) (int, error) {
	if !r.initialized {
		return 0, ErrNotInitialized
	}
	return len(r.channels), nil
}

// canonicalColumns maps normalized header names to channel attributes.
// Normalization strips underscores, dashes and spaces and lowercases,
// which folds stream_url / streamUrl / Stream-URL together.
var canonicalColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"title":      "name",
	"streamurl":  "streamUrl",
	"url":        "streamUrl",
	"logo":       "logo",
	"tvglogo":    "logo",
	"background": "background",
	"poster":     "poster",
	"genre":      "genre",
	"category":   "genre",
	"grouptitle": "genre",
	"country":    "country",
	"language":   "language",
	"quality":    "quality",
	"type":       "type",
	"isactive":   "isActive",
	"active":     "isActive",
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}

func (r *TabularRepository) parse(ctx context.Context, f io.Reader) ([]*models.Channel, int, error) {
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading header of %s: %w", r.path, err)
	}

	columns := make([]string, len(header))
	for i, raw := range header {
		if canonical, ok := canonicalColumns[normalizeColumn(raw)]; ok {
			columns[i] = canonical
		} else {
			// Unknown column, keep the raw name for metadata.
			columns[i] = "meta:" + strings.TrimSpace(raw)
		}
	}

	var channels []*models.Channel
	skipped := 0
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			skipped++
			r.logger.Warn("skipping malformed tabular row",
				slog.String("path", r.path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}

		ch := r.buildChannel(columns, record, len(channels))
		if err := ch.Validate(); err != nil {
			skipped++
			r.logger.Warn("skipping invalid tabular row",
				slog.String("path", r.path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}
		channels = append(channels, ch)
	}
	return channels, skipped, nil
}

func (r *TabularRepository) buildChannel(columns, record []string, index int) *models.Channel {
	ch := models.NewChannel("", "", index)
	ch.Source = r.path

	for i, value := range record {
		if i >= len(columns) {
			break
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch col := columns[i]; col {
		case "id":
			ch.ID = value
		case "name":
			ch.Name = value
		case "streamUrl":
			ch.StreamURL = strings.ToLower(value)
		case "logo":
			ch.Logo = value
		case "background":
			ch.Background = value
		case "poster":
			ch.Poster = value
		case "genre":
			ch.Genre = value
			ch.Categories = []string{value}
		case "country":
			ch.Country = value
		case "language":
			ch.Language = value
		case "quality":
			ch.Quality = models.Quality(strings.ToUpper(value))
		case "type":
			ch.Type = value
		case "isActive":
			if active, err := strconv.ParseBool(value); err == nil {
				ch.IsActive = active
			}
		default:
			ch.SetMeta(strings.TrimPrefix(col, "meta:"), value)
		}
	}
	if ch.Quality == models.QualityUnknown {
		ch.Quality = models.ParseQuality(ch.Name)
	}
	return ch
}

var _ Repository = (*TabularRepository)(nil)
