package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/textnorm"
	"github.com/tvforge/tvforge/internal/urlutil"
)

// Rejection records one removed channel and the rule that removed it.
type Rejection struct {
	Channel  *models.Channel
	Category Category
	Rule     string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s rejected by %s rule %q", r.Channel.Name, r.Category, r.Rule)
}

// Stats summarizes one filtering pass.
type Stats struct {
	Input    int
	Kept     int
	Rejected int
	Exempted int
	ByRule   map[Category]int
}

// Engine applies the compiled rule set to channel records. Rules are
// compiled lazily on first use so construction can precede config
// injection; NeedsReload supports rule updates between watch-mode runs.
type Engine struct {
	logger *slog.Logger

	mu         sync.Mutex
	cfg        *config.Config
	rules      *RuleSet
	compileErr error
	compiled   bool
}

// New creates a filter engine for the configuration. Compilation is
// deferred until the first Apply.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// ruleSet compiles the rules on first use.
func (e *Engine) ruleSet() (*RuleSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.compiled {
		e.rules, e.compileErr = Compile(e.cfg)
		e.compiled = true
		if e.compileErr == nil {
			e.logger.Debug("filter rules compiled",
				slog.Int("banned_names", len(e.rules.bannedNames)),
				slog.Int("banned_urls", len(e.rules.bannedURLs)),
				slog.Int("banned_ips", len(e.rules.bannedIPs)),
				slog.Int("banned_ranges", len(e.rules.bannedRanges)),
				slog.Int("banned_patterns", len(e.rules.bannedPatterns)),
				slog.Int("content_classes", len(e.rules.contentClasses)),
				slog.Bool("allowlist", e.rules.AllowlistActive()),
			)
		}
	}
	return e.rules, e.compileErr
}

// NeedsReload reports whether the given configuration carries different
// filtering rules than the compiled set.
func (e *Engine) NeedsReload(cfg *config.Config) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.compiled || e.rules == nil {
		return true
	}
	return e.rules.fingerprint != Fingerprint(cfg)
}

// Reload swaps in a new configuration and recompiles on next use.
func (e *Engine) Reload(cfg *config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.rules = nil
	e.compileErr = nil
	e.compiled = false
}

// Apply partitions channels into kept and rejected. Channels whose
// provenance is in the ignore-files set bypass every rule.
func (e *Engine) Apply(ctx context.Context, channels []*models.Channel) ([]*models.Channel, []Rejection, Stats, error) {
	stats := Stats{Input: len(channels), ByRule: make(map[Category]int)}

	rules, err := e.ruleSet()
	if err != nil {
		return nil, nil, stats, err
	}

	kept := make([]*models.Channel, 0, len(channels))
	var rejected []Rejection

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return nil, nil, stats, err
		}

		if rules.SourceExempt(ch.Source) {
			stats.Exempted++
			kept = append(kept, ch)
			continue
		}

		if rej, banned := e.evaluate(rules, ch); banned {
			stats.Rejected++
			stats.ByRule[rej.Category]++
			rejected = append(rejected, rej)
			e.logger.Debug("channel rejected",
				slog.String("name", ch.Name),
				slog.String("category", string(rej.Category)),
				slog.String("rule", rej.Rule),
			)
			continue
		}
		kept = append(kept, ch)
	}

	stats.Kept = len(kept)
	return kept, rejected, stats, nil
}

// evaluate runs every rule category against one channel. The first
// matching ban wins; per-category exemptions are checked before their
// category's bans.
func (e *Engine) evaluate(rules *RuleSet, ch *models.Channel) (Rejection, bool) {
	lowerName := strings.ToLower(ch.Name)
	lowerURL := strings.ToLower(ch.StreamURL)

	if rules.AllowlistActive() {
		if !rules.allowedNames[textnorm.MatchKey(ch.Name)] {
			return Rejection{Channel: ch, Category: CategoryAllowlist, Rule: "not in allowed channels"}, true
		}
	}

	if !rules.nameExempt(lowerName) {
		for _, term := range rules.bannedNames {
			if strings.Contains(lowerName, term) {
				return Rejection{Channel: ch, Category: CategoryName, Rule: term}, true
			}
		}
		for _, re := range rules.bannedPatterns {
			if re.MatchString(ch.Name) {
				return Rejection{Channel: ch, Category: CategoryPattern, Rule: re.String()}, true
			}
		}
		for _, class := range rules.contentClasses {
			for _, keyword := range class.keywords {
				if strings.Contains(lowerName, keyword) {
					return Rejection{Channel: ch, Category: CategoryContent, Rule: class.name + ":" + keyword}, true
				}
			}
		}
	}

	if !rules.urlExempt(lowerURL) {
		for _, term := range rules.bannedURLs {
			if strings.Contains(lowerURL, term) {
				return Rejection{Channel: ch, Category: CategoryURL, Rule: term}, true
			}
		}
	}

	if host := urlutil.Host(ch.StreamURL); host != "" {
		if ip := parseHostIP(host); ip != nil && !rules.ipExempt(host) {
			if rules.bannedIPs[host] {
				return Rejection{Channel: ch, Category: CategoryIP, Rule: host}, true
			}
			for _, ipNet := range rules.bannedRanges {
				if ipNet.Contains(ip) {
					return Rejection{Channel: ch, Category: CategoryIPRange, Rule: ipNet.String()}, true
				}
			}
		}
	}

	return Rejection{}, false
}
