package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewGenerator(42).MixedChannels(20)
	b := NewGenerator(42).MixedChannels(20)

	require.Len(t, a, 20)
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.Equal(t, a[i].StreamURL, b[i].StreamURL)
	}
}

func TestGeneratorNoRealBrands(t *testing.T) {
	real := []string{"BBC", "ESPN", "HBO", "Sky", "CNN", "Fox"}
	channels := NewGenerator(7).MixedChannels(100)

	for _, ch := range channels {
		for _, brand := range real {
			assert.NotContains(t, ch.Name, brand)
		}
	}
}

func TestChannelsFields(t *testing.T) {
	opts := DefaultOptions()
	opts.Genre = "News"
	opts.StartIndex = 10

	channels := NewGenerator(1).Channels(3, opts)
	require.Len(t, channels, 3)

	for i, ch := range channels {
		assert.Equal(t, "News", ch.Genre)
		assert.Equal(t, 10+i, ch.OriginalIndex)
		assert.NotEmpty(t, ch.ID)
		assert.True(t, ch.IsActive)
		assert.Equal(t, "live", ch.Type)
	}
}

func TestQualityVariantsOf(t *testing.T) {
	base := NewGenerator(3).Channels(1, DefaultOptions())[0]
	variants := NewGenerator(3).QualityVariantsOf(base)

	require.Len(t, variants, len(QualityVariants))
	seen := map[string]bool{}
	for _, v := range variants {
		assert.False(t, seen[v.StreamURL], "stream URLs must be distinct")
		seen[v.StreamURL] = true
		assert.Contains(t, v.Name, base.Name)
	}
}

func TestM3URendering(t *testing.T) {
	channels := NewGenerator(5).Channels(2, DefaultOptions())
	text := M3U(channels)

	assert.True(t, strings.HasPrefix(text, "#EXTM3U\n"))
	assert.Equal(t, 2, strings.Count(text, "#EXTINF"))
	for _, ch := range channels {
		assert.Contains(t, text, ch.StreamURL)
	}
}
