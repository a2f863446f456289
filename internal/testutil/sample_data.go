// Package testutil provides sample data generation for tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/tvforge/tvforge/internal/models"
)

// Fictional broadcasters for test data.
// NEVER use real brand names like BBC, ESPN, HBO, Sky, etc.
var (
	Broadcasters = []string{
		"StreamCast",
		"ViewMedia",
		"AeroVision",
		"GlobalStream",
		"NationalNet",
		"SportsCentral",
		"CinemaMax",
		"MusicMax",
		"NewsFirst",
		"PrimeTV",
	}

	QualityVariants = []string{"HD", "SD", "4K", "FHD"}

	// Genres with their associated channel name suffixes.
	Genres = map[string][]string{
		"News": {
			"News",
			"Breaking News",
			"World News",
			"Local News",
		},
		"Sports": {
			"Sports",
			"Racing",
			"Football",
			"Sports Extra",
		},
		"Movies": {
			"Movies",
			"Action Movies",
			"Classic Movies",
			"Cinema",
		},
		"Entertainment": {
			"Entertainment",
			"Lifestyle",
			"Comedy",
			"Drama",
		},
		"Adult": {
			"Adult Channel",
			"Adult Movies",
			"Late Night",
		},
		"Music": {
			"Music",
			"Hits",
			"Classic Hits",
			"Dance",
		},
		"Kids": {
			"Kids",
			"Cartoons",
			"Junior",
			"Family",
		},
	}
)

// Generator produces fictional but realistic channel data.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a fixed seed so tests are
// reproducible.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Options configures channel generation.
type Options struct {
	Genre         string // genre filter; empty picks per-channel at random
	StartIndex    int    // OriginalIndex of the first channel
	StreamURLBase string
	LogoURLBase   string
	Source        string // provenance label stamped on each channel
}

// DefaultOptions returns the options most tests want.
func DefaultOptions() Options {
	return Options{
		Genre:         "Entertainment",
		StartIndex:    0,
		StreamURLBase: "https://stream.example.com/channel",
		LogoURLBase:   "https://logos.example.com/channel",
		Source:        "playlist_url[0]",
	}
}

// Broadcaster returns a random broadcaster name.
func (g *Generator) Broadcaster() string {
	return Broadcasters[g.rng.Intn(len(Broadcasters))]
}

// ChannelName generates a full channel name for a genre, sometimes
// with a quality suffix.
func (g *Generator) ChannelName(genre string) string {
	suffixes, ok := Genres[genre]
	if !ok {
		suffixes = Genres["Entertainment"]
	}
	name := fmt.Sprintf("%s %s", g.Broadcaster(), suffixes[g.rng.Intn(len(suffixes))])
	if g.rng.Float64() < 0.4 {
		name += " " + QualityVariants[g.rng.Intn(len(QualityVariants))]
	}
	return name
}

// Channels generates count channels per opts.
func (g *Generator) Channels(count int, opts Options) []*models.Channel {
	channels := make([]*models.Channel, count)
	genres := genreList()

	for i := 0; i < count; i++ {
		genre := opts.Genre
		if genre == "" {
			genre = genres[g.rng.Intn(len(genres))]
		}
		index := opts.StartIndex + i

		ch := models.NewChannel(g.ChannelName(genre), fmt.Sprintf("%s%d", opts.StreamURLBase, index+1), index)
		ch.ID = fmt.Sprintf("ch%03d", index+1)
		ch.Genre = genre
		ch.Logo = fmt.Sprintf("%s%d.png", opts.LogoURLBase, index+1)
		ch.Source = opts.Source
		channels[i] = ch
	}
	return channels
}

// MixedChannels generates channels across all non-adult genres.
func (g *Generator) MixedChannels(count int) []*models.Channel {
	opts := DefaultOptions()
	opts.Genre = ""
	return g.Channels(count, opts)
}

// AdultChannels generates adult-genre channels for filter tests.
func (g *Generator) AdultChannels(count int) []*models.Channel {
	opts := DefaultOptions()
	opts.Genre = "Adult"
	return g.Channels(count, opts)
}

// QualityVariantsOf clones a channel into one copy per quality label,
// each with a distinct stream URL. Useful for dedup tests.
func (g *Generator) QualityVariantsOf(base *models.Channel) []*models.Channel {
	variants := make([]*models.Channel, len(QualityVariants))
	for i, q := range QualityVariants {
		v := base.Clone()
		v.ID = fmt.Sprintf("%s-%s", base.ID, strings.ToLower(q))
		v.Name = fmt.Sprintf("%s %s", base.Name, q)
		v.Quality = models.ParseQuality(v.Name)
		v.StreamURL = fmt.Sprintf("%s/%s", base.StreamURL, strings.ToLower(q))
		v.OriginalIndex = base.OriginalIndex + i
		variants[i] = v
	}
	return variants
}

// M3U renders channels as extended M3U playlist text, for parser and
// source tests.
func M3U(channels []*models.Channel) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, ch := range channels {
		b.WriteString(fmt.Sprintf("#EXTINF:-1 tvg-id=%q tvg-logo=%q group-title=%q,%s\n",
			ch.ID, ch.Logo, ch.Genre, ch.Name))
		b.WriteString(ch.StreamURL)
		b.WriteString("\n")
	}
	return b.String()
}

func genreList() []string {
	// Deterministic order; Adult is excluded so mixed sets pass the
	// default content filters.
	return []string{"News", "Sports", "Movies", "Entertainment", "Music", "Kids"}
}
