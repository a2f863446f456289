package emit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/textnorm"
	"github.com/tvforge/tvforge/pkg/m3u"
)

// titleUnsafe matches characters stripped from playlist titles. Word
// characters, spaces, dashes, dots, parentheses and brackets survive.
var titleUnsafe = regexp.MustCompile(`[^\w \-.()\[\]]+`)

// sanitizeTitle strips characters that break EXTINF title parsing.
func sanitizeTitle(name string) string {
	cleaned := titleUnsafe.ReplaceAllString(name, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "channel"
	}
	return cleaned
}

// entryFromChannel converts a channel record back into a playlist
// entry. The channel id is written as tvg-id so a re-ingest of the
// emitted playlist reproduces the same ids; a record without an id
// falls back to a source-provided tvg-id in metadata.
func entryFromChannel(ch *models.Channel) *m3u.Entry {
	id := ch.ID
	if id == "" {
		id = ch.Meta("tvg-id")
	}
	return &m3u.Entry{
		Title:       sanitizeTitle(ch.Name),
		URL:         ch.StreamURL,
		TvgID:       id,
		TvgLogo:     ch.Logo,
		TvgLanguage: ch.Language,
		TvgCountry:  ch.Country,
		GroupTitle:  ch.Genre,
	}
}

// writePlaylist emits the aggregated playlist.
func (e *Emitter) writePlaylist(ctx context.Context, channels []*models.Channel) error {
	return writeAtomic(ctx, e.playlistPath, func(w io.Writer) error {
		mw := m3u.NewWriter(w)
		if err := mw.WriteHeader(); err != nil {
			return err
		}
		for _, ch := range channels {
			if err := mw.WriteEntry(entryFromChannel(ch)); err != nil {
				return fmt.Errorf("channel %q: %w", ch.ID, err)
			}
		}
		return nil
	})
}

// writeFragments wipes the fragment directory and writes one playlist
// per channel. Filenames derive from the slugged name and id; name
// collisions get a numeric suffix.
func (e *Emitter) writeFragments(ctx context.Context, channels []*models.Channel) (int, error) {
	if err := os.RemoveAll(e.fragmentsDir); err != nil {
		return 0, fmt.Errorf("wiping fragment directory: %w", err)
	}
	if err := os.MkdirAll(e.fragmentsDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating fragment directory: %w", err)
	}

	written := 0
	taken := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		name := e.fragmentName(ch, taken)
		path := filepath.Join(e.fragmentsDir, name)
		if err := writeAtomic(ctx, path, func(w io.Writer) error {
			return writeFragment(w, ch)
		}); err != nil {
			return written, fmt.Errorf("fragment for %q: %w", ch.ID, err)
		}
		written++
	}
	return written, nil
}

// fragmentName builds <slug(name)>_<slug(id)>.m3u8, appending _2, _3,
// ... until the name is free in this run.
func (e *Emitter) fragmentName(ch *models.Channel, taken map[string]struct{}) string {
	base := fmt.Sprintf("%s_%s", textnorm.Slug(ch.Name), textnorm.Slug(ch.ID))
	name := base + ".m3u8"
	for n := 2; ; n++ {
		if _, exists := taken[name]; !exists {
			break
		}
		name = fmt.Sprintf("%s_%d.m3u8", base, n)
	}
	taken[name] = struct{}{}
	return name
}

// writeFragment emits a single-channel playlist. The URL is lowercased
// and stripped of whitespace so downstream players never choke on
// copy-paste artifacts in source data.
func writeFragment(w io.Writer, ch *models.Channel) error {
	url := strings.ToLower(strings.Join(strings.Fields(ch.StreamURL), ""))
	mw := m3u.NewWriter(w)
	if err := mw.WriteHeader(); err != nil {
		return err
	}
	entry := entryFromChannel(ch)
	entry.URL = url
	return mw.WriteEntry(entry)
}
