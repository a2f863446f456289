package source

import (
	"strings"

	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/pkg/m3u"
)

// channelFromEntry converts a parsed playlist entry into a channel
// record. The playlist tvg-id carries the source's channel id, so ids
// survive an emit-then-reingest cycle; records without one get a
// synthesized id during preparation, and duplicate ids are uniquified
// there.
func channelFromEntry(entry *m3u.Entry, index int, provenance string) *models.Channel {
	ch := models.NewChannel(strings.TrimSpace(entry.Title), entry.URL, index)
	ch.ID = entry.TvgID
	ch.Source = provenance
	ch.Logo = entry.TvgLogo
	ch.Genre = entry.GroupTitle
	ch.Language = entry.TvgLanguage
	ch.Country = entry.TvgCountry
	if entry.GroupTitle != "" {
		ch.Categories = []string{entry.GroupTitle}
	}
	for k, v := range entry.Extra {
		ch.SetMeta(k, v)
	}
	return ch
}
