package validate

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"

	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/urlutil"
)

// maxPlaylistProbeBytes caps how much of an HLS body the deep
// inspection reads.
const maxPlaylistProbeBytes = 256 * 1024

// looksLikeHLS reports whether a URL or its content type indicates an
// HLS playlist worth deep inspection.
func looksLikeHLS(url, contentType string) bool {
	if strings.HasSuffix(strings.ToLower(strings.TrimSuffix(url, "/")), ".m3u8") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "mpegurl")
}

// deepInspector fetches an HLS playlist body and requires it to parse
// as a multivariant or media playlist. Parse failure downgrades a
// reachable verdict to unreachable.
type deepInspector struct {
	client *httpclient.Client
	logger *slog.Logger
}

// inspect re-checks a reachable verdict. It returns the (possibly
// downgraded) verdict.
func (d *deepInspector) inspect(ctx context.Context, verdict models.ValidationVerdict) models.ValidationVerdict {
	if verdict.Outcome != models.OutcomeReachable || !looksLikeHLS(verdict.URL, verdict.ContentType) {
		return verdict
	}

	resp, err := d.client.Get(ctx, verdict.URL)
	if err != nil {
		verdict.Outcome = classifyError(err)
		verdict.Err = "deep inspection fetch: " + err.Error()
		return verdict
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		verdict.Outcome = models.OutcomeUnreachable
		verdict.StatusCode = resp.StatusCode
		verdict.Err = "deep inspection fetch rejected"
		return verdict
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistProbeBytes))
	if err != nil {
		verdict.Outcome = classifyError(err)
		verdict.Err = "deep inspection read: " + err.Error()
		return verdict
	}

	parsed, err := playlist.Unmarshal(body)
	if err != nil {
		verdict.Outcome = models.OutcomeUnreachable
		verdict.Err = "not a valid HLS playlist: " + err.Error()
		d.logger.Debug("deep inspection rejected playlist",
			slog.String("url", urlutil.Obfuscate(verdict.URL)),
			slog.String("error", err.Error()),
		)
		return verdict
	}

	switch parsed.(type) {
	case *playlist.Multivariant, *playlist.Media:
		verdict.Outcome = models.OutcomeReachable
	default:
		verdict.Outcome = models.OutcomeUnreachable
		verdict.Err = "unrecognized HLS playlist variant"
	}
	return verdict
}
