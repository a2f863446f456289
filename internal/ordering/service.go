// Package ordering produces the final emission sequence: priority
// channels first, then category-ordered groups, stable within groups.
package ordering

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/textnorm"
)

// maxPriorityCopies bounds how many records one priority name can
// promote. Two copies survive a single dead stream without flooding
// the top of the catalog.
const maxPriorityCopies = 2

// Stats summarizes one ordering pass.
type Stats struct {
	Input    int
	Promoted int
	Demoted  int
}

// Service applies the priority and category rules.
type Service struct {
	priorities    []string
	categoryOrder map[string]int
	logger        *slog.Logger

	mu    sync.Mutex
	usage map[string]int
}

// New creates an ordering service from the configuration. Priority
// names are normalized to whole-word match keys; category names fold
// case.
func New(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		categoryOrder: make(map[string]int),
		logger:        logger,
	}
	for _, name := range cfg.PriorityChannels {
		if key := textnorm.MatchKey(name); key != "" {
			s.priorities = append(s.priorities, key)
		}
	}
	for i, category := range cfg.CategoryOrder {
		if folded := strings.ToLower(strings.TrimSpace(category)); folded != "" {
			if _, seen := s.categoryOrder[folded]; !seen {
				s.categoryOrder[folded] = i
			}
		}
	}
	return s
}

// Order returns the channels in final emission order:
//
//  1. Per priority name, up to two whole-word matches promoted to the
//     front in priority-list order, pairs adjacent.
//  2. Remaining channels grouped by category per the configured order;
//     unlisted categories sort alphabetically after the listed ones.
//     Within a group, stable by original index.
//  3. Priority matches beyond the two-copy cap are demoted behind the
//     category block, by normalized name then original index.
func (s *Service) Order(channels []*models.Channel) ([]*models.Channel, Stats) {
	stats := Stats{Input: len(channels)}

	s.mu.Lock()
	s.usage = make(map[string]int)
	s.mu.Unlock()

	var promoted, demoted, rest []*models.Channel

	matchesOf := make(map[string][]*models.Channel)
	for _, ch := range channels {
		key := textnorm.MatchKey(ch.Name)
		if key == "" {
			rest = append(rest, ch)
			continue
		}
		matched := false
		for _, priority := range s.priorities {
			if key == priority {
				matchesOf[priority] = append(matchesOf[priority], ch)
				matched = true
				break
			}
		}
		if !matched {
			rest = append(rest, ch)
		}
	}

	for _, priority := range s.priorities {
		matches := matchesOf[priority]
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].OriginalIndex < matches[j].OriginalIndex
		})
		for _, ch := range matches {
			if s.take(priority) {
				promoted = append(promoted, ch)
			} else {
				demoted = append(demoted, ch)
			}
		}
	}

	sort.SliceStable(rest, func(i, j int) bool {
		ri, rj := s.categoryRank(rest[i]), s.categoryRank(rest[j])
		if ri.listed != rj.listed {
			return ri.listed
		}
		if ri.listed && ri.index != rj.index {
			return ri.index < rj.index
		}
		if !ri.listed && ri.name != rj.name {
			return ri.name < rj.name
		}
		return rest[i].OriginalIndex < rest[j].OriginalIndex
	})

	sort.SliceStable(demoted, func(i, j int) bool {
		ni, nj := textnorm.CanonicalName(demoted[i].Name), textnorm.CanonicalName(demoted[j].Name)
		if ni != nj {
			return ni < nj
		}
		return demoted[i].OriginalIndex < demoted[j].OriginalIndex
	})

	stats.Promoted = len(promoted)
	stats.Demoted = len(demoted)

	out := make([]*models.Channel, 0, len(channels))
	out = append(out, promoted...)
	out = append(out, rest...)
	out = append(out, demoted...)

	s.logger.Debug("ordering finished",
		slog.Int("channels", stats.Input),
		slog.Int("promoted", stats.Promoted),
		slog.Int("demoted", stats.Demoted),
	)
	return out, stats
}

// take increments the promotion counter for a priority name under the
// mutex and reports whether the cap still allows a promotion.
func (s *Service) take(priority string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usage[priority] >= maxPriorityCopies {
		return false
	}
	s.usage[priority]++
	return true
}

type categoryRank struct {
	listed bool
	index  int
	name   string
}

func (s *Service) categoryRank(ch *models.Channel) categoryRank {
	folded := strings.ToLower(strings.TrimSpace(ch.Genre))
	if index, ok := s.categoryOrder[folded]; ok {
		return categoryRank{listed: true, index: index}
	}
	return categoryRank{name: folded}
}
