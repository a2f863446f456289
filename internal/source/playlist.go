package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/urlutil"
	"github.com/tvforge/tvforge/pkg/m3u"
)

// RemotePlaylistRepository fetches a playlist over HTTP and parses it
// into channel records. The fetch happens in Initialize under a
// bounded deadline; the body is size-capped and streamed straight into
// the parser.
type RemotePlaylistRepository struct {
	url      string
	client   *httpclient.Client
	timeout  time.Duration
	maxBytes int64
	logger   *slog.Logger

	initialized bool
	channels    []*models.Channel
	skipped     int
}

// NewRemotePlaylistRepository creates a repository for one playlist URL.
func NewRemotePlaylistRepository(url string, client *httpclient.Client, timeout time.Duration, maxBytes int64, logger *slog.Logger) *RemotePlaylistRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemotePlaylistRepository{
		url:      url,
		client:   client,
		timeout:  timeout,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Kind implements Repository.
func (r *RemotePlaylistRepository) Kind() models.SourceKind {
	return models.SourceRemotePlaylist
}

// Initialize fetches and parses the playlist.
func (r *RemotePlaylistRepository) Initialize(ctx context.Context) error {
	fetchCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.client.Get(fetchCtx, r.url)
	if err != nil {
		return fmt.Errorf("fetching playlist %s: %w", urlutil.Obfuscate(r.url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching playlist %s: unexpected status %d", urlutil.Obfuscate(r.url), resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if r.maxBytes > 0 {
		body = io.LimitReader(resp.Body, r.maxBytes)
	}

	channels, skipped, err := parsePlaylist(body, r.url, r.logger)
	if err != nil {
		return fmt.Errorf("parsing playlist %s: %w", urlutil.Obfuscate(r.url), err)
	}
	r.channels = channels
	r.skipped = skipped
	r.initialized = true

	r.logger.Info("remote playlist loaded",
		slog.String("url", urlutil.Obfuscate(r.url)),
		slog.Int("channels", len(channels)),
		slog.Int("skipped", skipped),
	)
	return nil
}

// Channels implements Repository.
func (r *RemotePlaylistRepository) Channels(ctx context.Context) ([]*models.Channel, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	return r.channels, nil
}

// Count implements Repository.
func (r *RemotePlaylistRepository) Count(ctx context.Context) (int, error) {
	if !r.initialized {
		return 0, ErrNotInitialized
	}
	return len(r.channels), nil
}

// LocalPlaylistRepository parses a playlist file from disk. Compressed
// files (gzip, bzip2, xz) are detected by magic bytes and decompressed
// transparently.
type LocalPlaylistRepository struct {
	path   string
	logger *slog.Logger

	initialized bool
	channels    []*models.Channel
	skipped     int
}

// NewLocalPlaylistRepository creates a repository reading the given file.
func NewLocalPlaylistRepository(path string, logger *slog.Logger) *LocalPlaylistRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalPlaylistRepository{path: path, logger: logger}
}

// Kind implements Repository.
func (r *LocalPlaylistRepository) Kind() models.SourceKind {
	return models.SourceLocalPlaylist
}

// Initialize reads and parses the file.
func (r *LocalPlaylistRepository) Initialize(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening playlist %s: %w", r.path, err)
	}
	defer f.Close()

	channels, skipped, err := parsePlaylist(f, r.path, r.logger)
	if err != nil {
		return fmt.Errorf("parsing playlist %s: %w", r.path, err)
	}
	r.channels = channels
	r.skipped = skipped
	r.initialized = true

	r.logger.Info("local playlist loaded",
		slog.String("path", r.path),
		slog.Int("channels", len(channels)),
		slog.Int("skipped", skipped),
	)
	return nil
}

// Channels implements Repository.
func (r *LocalPlaylistRepository) Channels(ctx context.Context) ([]*models.Channel, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	return r.channels, nil
}

// Count implements Repository.
func (r *LocalPlaylistRepository) Count(ctx context.Context) (int, error) {
	if !r.initialized {
		return 0, ErrNotInitialized
	}
	return len(r.channels), nil
}

// parsePlaylist runs the streaming parser over a reader, converting
// entries to channels annotated with the provenance label. Orphan URL
// lines and malformed EXTINF lines are skipped with a warning.
func parsePlaylist(r io.Reader, provenance string, logger *slog.Logger) ([]*models.Channel, int, error) {
	var channels []*models.Channel
	skipped := 0

	parser := &m3u.Parser{
		OnEntry: func(entry *m3u.Entry) error {
			ch := channelFromEntry(entry, len(channels), provenance)
			if err := ch.Validate(); err != nil {
				skipped++
				logger.Warn("skipping invalid playlist entry",
					slog.String("source", urlutil.Obfuscate(provenance)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			channels = append(channels, ch)
			return nil
		},
		OnWarning: func(lineNum int, err error) {
			skipped++
			logger.Warn("skipping playlist line",
				slog.String("source", urlutil.Obfuscate(provenance)),
				slog.Int("line", lineNum),
				slog.String("error", err.Error()),
			)
		},
	}

	if err := parser.ParseCompressed(r); err != nil {
		return nil, skipped, err
	}
	return channels, skipped, nil
}

var (
	_ Repository = (*RemotePlaylistRepository)(nil)
	_ Repository = (*LocalPlaylistRepository)(nil)
)
