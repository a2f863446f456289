package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
)

func makeChannel(index int, name, genre string) *models.Channel {
	ch := models.NewChannel(name, "http://example.com/"+name, index)
	ch.Genre = genre
	return ch
}

func names(channels []*models.Channel) []string {
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = ch.Name
	}
	return out
}

func TestOrderPriorityCap(t *testing.T) {
	cfg := &config.Config{PriorityChannels: []string{"LATINA"}}
	svc := New(cfg, nil)

	channels := []*models.Channel{
		makeChannel(0, "LATINA", ""),
		makeChannel(1, "LATINA", ""),
		makeChannel(2, "LATINA", ""),
		makeChannel(3, "TELE", ""),
	}

	ordered, stats := svc.Order(channels)
	require.Len(t, ordered, 4)

	// Two copies promoted, the third demoted behind the rest.
	assert.Equal(t, []string{"LATINA", "LATINA", "TELE", "LATINA"}, names(ordered))
	assert.Equal(t, 0, ordered[0].OriginalIndex)
	assert.Equal(t, 1, ordered[1].OriginalIndex)
	assert.Equal(t, 2, ordered[3].OriginalIndex)
	assert.Equal(t, 2, stats.Promoted)
	assert.Equal(t, 1, stats.Demoted)
}

func TestOrderPriorityListOrder(t *testing.T) {
	cfg := &config.Config{PriorityChannels: []string{"BBC One", "ESPN"}}
	svc := New(cfg, nil)

	channels := []*models.Channel{
		makeChannel(0, "ESPN", "Sports"),
		makeChannel(1, "Other", "News"),
		makeChannel(2, "BBC One", "General"),
	}

	ordered, _ := svc.Order(channels)
	assert.Equal(t, []string{"BBC One", "ESPN", "Other"}, names(ordered))
}

func TestOrderWholeWordMatch(t *testing.T) {
	cfg := &config.Config{PriorityChannels: []string{"ESPN"}}
	svc := New(cfg, nil)

	channels := []*models.Channel{
		makeChannel(0, "ESPN HD", ""),
		makeChannel(1, "espn!", ""),
	}

	ordered, stats := svc.Order(channels)
	// Punctuation folds away so "espn!" matches; "ESPN HD" does not.
	assert.Equal(t, []string{"espn!", "ESPN HD"}, names(ordered))
	assert.Equal(t, 1, stats.Promoted)
}

func TestOrderCategories(t *testing.T) {
	cfg := &config.Config{CategoryOrder: []string{"News", "Sports"}}
	svc := New(cfg, nil)

	channels := []*models.Channel{
		makeChannel(0, "Zeta", "Music"),
		makeChannel(1, "Goal", "Sports"),
		makeChannel(2, "Flicks", "Cinema"),
		makeChannel(3, "Wire", "News"),
		makeChannel(4, "Kick", "Sports"),
	}

	ordered, _ := svc.Order(channels)
	// Listed categories first in configured order, then unlisted
	// alphabetically; stable by original index within a group.
	assert.Equal(t, []string{"Wire", "Goal", "Kick", "Flicks", "Zeta"}, names(ordered))
}

func TestOrderStableWithinCategory(t *testing.T) {
	cfg := &config.Config{CategoryOrder: []string{"Sports"}}
	svc := New(cfg, nil)

	channels := []*models.Channel{
		makeChannel(5, "B Sports", "Sports"),
		makeChannel(2, "A Sports", "Sports"),
	}

	ordered, _ := svc.Order(channels)
	assert.Equal(t, []string{"A Sports", "B Sports"}, names(ordered))
}

func TestOrderEmpty(t *testing.T) {
	svc := New(&config.Config{}, nil)
	ordered, stats := svc.Order(nil)
	assert.Empty(t, ordered)
	assert.Zero(t, stats.Input)
}
