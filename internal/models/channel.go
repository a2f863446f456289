package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Quality describes the advertised resolution tier of a stream.
type Quality string

const (
	QualitySD      Quality = "SD"
	QualityHD      Quality = "HD"
	QualityFHD     Quality = "FHD"
	QualityUHD     Quality = "UHD"
	Quality4K      Quality = "4K"
	QualityUnknown Quality = ""
)

// Rank orders qualities for upgrade decisions. UHD and 4K are the same
// tier; unknown ranks below SD.
func (q Quality) Rank() int {
	switch q {
	case Quality4K, QualityUHD:
		return 4
	case QualityFHD:
		return 3
	case QualityHD:
		return 2
	case QualitySD:
		return 1
	default:
		return 0
	}
}

// qualityTokens maps name tokens to quality tiers. Longer tokens are
// matched first so "fullhd" never resolves as "hd".
var qualityTokens = []struct {
	token string
	q     Quality
}{
	{"2160p", QualityUHD},
	{"fullhd", QualityFHD},
	{"full hd", QualityFHD},
	{"1080p", QualityFHD},
	{"1080i", QualityFHD},
	{"720p", QualityHD},
	{"576p", QualitySD},
	{"480p", QualitySD},
	{"uhd", QualityUHD},
	{"fhd", QualityFHD},
	{"4k", Quality4K},
	{"hd", QualityHD},
	{"sd", QualitySD},
}

var qualityBoundary = regexp.MustCompile(`[a-z0-9]+`)

// ParseQuality extracts a quality tier from a channel name. Tokens are
// matched on word boundaries: "HD" in "THD Sports" does not count.
func ParseQuality(name string) Quality {
	lower := strings.ToLower(name)
	words := qualityBoundary.FindAllString(lower, -1)
	joined := " " + strings.Join(words, " ") + " "
	for _, qt := range qualityTokens {
		if strings.Contains(joined, " "+qt.token+" ") {
			return qt.q
		}
	}
	return QualityUnknown
}

var streamURLPattern = regexp.MustCompile(`^https?://`)

// Channel is a single catalog entry as it flows through the pipeline.
// OriginalIndex preserves the position the channel held in its source
// and anchors every stable sort downstream.
type Channel struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	OriginalName  string            `json:"originalName,omitempty"`
	StreamURL     string            `json:"streamUrl"`
	Logo          string            `json:"logo,omitempty"`
	Poster        string            `json:"poster,omitempty"`
	Background    string            `json:"background,omitempty"`
	Genre         string            `json:"genre,omitempty"`
	Categories    []string          `json:"categories,omitempty"`
	Country       string            `json:"country,omitempty"`
	Language      string            `json:"language,omitempty"`
	Quality       Quality           `json:"quality,omitempty"`
	Type          string            `json:"type"`
	IsActive      bool              `json:"isActive"`
	Source        string            `json:"source,omitempty"`
	OriginalIndex int               `json:"originalIndex"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewChannel builds a channel with the defaults every ingestion path
// applies: live type, active, quality inferred from the name.
func NewChannel(name, streamURL string, index int) *Channel {
	return &Channel{
		Name:          name,
		StreamURL:     streamURL,
		Type:          "live",
		IsActive:      true,
		Quality:       ParseQuality(name),
		OriginalIndex: index,
	}
}

// EnsureID assigns a synthesized identifier when the source provided
// none. The timestamp is the run reference time in Unix seconds, so a
// pinned reference time yields reproducible ids.
func (c *Channel) EnsureID(ts int64) {
	if c.ID == "" {
		c.ID = fmt.Sprintf("channel_%d_%d", ts, c.OriginalIndex)
	}
}

// SetCleanName replaces the display name while preserving the raw name
// the source delivered. An empty cleaned value keeps the current name.
func (c *Channel) SetCleanName(cleaned string) {
	if cleaned == "" || cleaned == c.Name {
		return
	}
	if c.OriginalName == "" {
		c.OriginalName = c.Name
	}
	c.Name = cleaned
}

// Clone returns a deep copy. Slices and the metadata map are copied so
// concurrent stages never share backing storage.
func (c *Channel) Clone() *Channel {
	dup := *c
	if c.Categories != nil {
		dup.Categories = make([]string, len(c.Categories))
		copy(dup.Categories, c.Categories)
	}
	if c.Metadata != nil {
		dup.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			dup.Metadata[k] = v
		}
	}
	return &dup
}

// SetMeta records a metadata key, allocating the map on first use.
func (c *Channel) SetMeta(key, value string) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string, 4)
	}
	c.Metadata[key] = value
}

// Meta returns a metadata value, or "" when unset.
func (c *Channel) Meta(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}

// Validate checks the fields the emitters require.
func (c *Channel) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("channel %q: %w", c.ID, ErrMissingName)
	}
	if c.StreamURL == "" {
		return fmt.Errorf("channel %q: %w", c.Name, ErrMissingStreamURL)
	}
	if !streamURLPattern.MatchString(c.StreamURL) {
		return fmt.Errorf("channel %q: stream URL %q: %w", c.Name, c.StreamURL, ErrBadStreamScheme)
	}
	return nil
}
