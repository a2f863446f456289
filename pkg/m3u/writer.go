package m3u

import (
	"fmt"
	"io"
	"strings"
)

// Writer provides streaming M3U playlist writing. Attributes are
// emitted in a fixed order so identical inputs produce identical
// playlists.
type Writer struct {
	w             io.Writer
	headerWritten bool
}

// NewWriter creates a new M3U writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the M3U header.
// This is automatically called by WriteEntry if not already written.
func (w *Writer) WriteHeader() error {
	if w.headerWritten {
		return nil
	}
	if _, err := fmt.Fprint(w.w, "#EXTM3U\n"); err != nil {
		return fmt.Errorf("writing M3U header: %w", err)
	}
	w.headerWritten = true
	return nil
}

// WriteEntry writes a single channel entry to the M3U playlist.
// Attribute order is group-title, tvg-logo, tvg-id, tvg-language,
// tvg-country; empty attributes are omitted.
func (w *Writer) WriteEntry(entry *Entry) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}

	var attrs []string
	appendAttr := func(key, value string) {
		if value != "" {
			attrs = append(attrs, fmt.Sprintf(`%s="%s"`, key, escapeQuotes(value)))
		}
	}
	appendAttr("group-title", entry.GroupTitle)
	appendAttr("tvg-logo", entry.TvgLogo)
	appendAttr("tvg-id", entry.TvgID)
	appendAttr("tvg-language", entry.TvgLanguage)
	appendAttr("tvg-country", entry.TvgCountry)

	duration := entry.Duration
	if duration == 0 {
		duration = -1 // live streams
	}

	var extinf string
	if len(attrs) > 0 {
		extinf = fmt.Sprintf("#EXTINF:%d %s, %s", duration, strings.Join(attrs, " "), entry.Title)
	} else {
		extinf = fmt.Sprintf("#EXTINF:%d, %s", duration, entry.Title)
	}

	if _, err := fmt.Fprintf(w.w, "%s\n%s\n", extinf, entry.URL); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}

	return nil
}

// escapeQuotes escapes double quotes in attribute values.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
