package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/textnorm"
	"github.com/tvforge/tvforge/internal/urlutil"
)

// Strategy selects how representatives are elected.
type Strategy string

const (
	// StrategyFirst keeps the earliest candidate after quality and
	// source tie-breaks.
	StrategyFirst Strategy = "first"
	// StrategyPrioritizeWorking probes candidates and prefers the ones
	// whose streams answer.
	StrategyPrioritizeWorking Strategy = "prioritize_working"
)

// Prober answers whether a stream URL currently serves. The validator
// provides the implementation; dedup only needs the boolean.
type Prober interface {
	ProbeQuick(ctx context.Context, url string) bool
}

// Removal records one eliminated duplicate.
type Removal struct {
	Channel *models.Channel
	KeptID  string
	Reason  string
}

// Stats summarizes one deduplication pass.
type Stats struct {
	Input             int
	Retained          int
	Clusters          int
	DuplicatesRemoved int
	Efficiency        float64
}

// Result carries the reduced set plus per-eliminated-record reasons.
type Result struct {
	Channels []*models.Channel
	Groups   []*models.ChannelGroup
	Removed  []Removal
	Stats    Stats
}

// Engine clusters near-duplicate channels. Two records share a cluster
// when their normalized URLs are identical, or when both the name
// Jaccard similarity and the URL trigram similarity clear their
// thresholds.
type Engine struct {
	nameThreshold float64
	urlThreshold  float64
	hdUpgrade     bool
	sourceOrder   map[string]int
	strategy      Strategy
	prober        Prober
	metrics       bool
	logger        *slog.Logger
}

// New creates a deduplication engine from the configuration.
// sourceOrder maps provenance labels to their configured priority;
// lower is preferred. Pass a nil prober to disable probing.
func New(cfg *config.Config, sourceOrder map[string]int, prober Prober, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.PreserveSourcePriority {
		sourceOrder = nil
	}
	return &Engine{
		nameThreshold: cfg.NameSimilarityThreshold,
		urlThreshold:  cfg.UrlSimilarityThreshold,
		hdUpgrade:     cfg.EnableHdUpgrade,
		sourceOrder:   sourceOrder,
		strategy:      Strategy(cfg.DedupStrategy),
		prober:        prober,
		metrics:       cfg.DedupMetrics,
		logger:        logger,
	}
}

// Deduplicate reduces the channel set. The retained order follows the
// representatives' original indexes, so the pass is stable.
func (e *Engine) Deduplicate(ctx context.Context, channels []*models.Channel) (*Result, error) {
	result := &Result{Stats: Stats{Input: len(channels)}}
	if len(channels) == 0 {
		result.Stats.Efficiency = 1
		return result, nil
	}

	parent := e.cluster(ctx, channels)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Gather members per cluster root, in input order.
	memberships := make(map[int][]*models.Channel)
	var roots []int
	for i, ch := range channels {
		root := find(parent, i)
		if _, seen := memberships[root]; !seen {
			roots = append(roots, root)
		}
		memberships[root] = append(memberships[root], ch)
	}

	for _, root := range roots {
		members := memberships[root]
		group := &models.ChannelGroup{Members: members}
		group.Representative = e.elect(ctx, members)
		result.Groups = append(result.Groups, group)
		result.Channels = append(result.Channels, group.Representative)

		for _, dup := range group.Duplicates() {
			result.Removed = append(result.Removed, Removal{
				Channel: dup,
				KeptID:  group.Representative.ID,
				Reason:  fmt.Sprintf("duplicate of %q", group.Representative.Name),
			})
		}
	}

	sort.SliceStable(result.Channels, func(i, j int) bool {
		return result.Channels[i].OriginalIndex < result.Channels[j].OriginalIndex
	})

	result.Stats.Retained = len(result.Channels)
	result.Stats.Clusters = len(result.Groups)
	result.Stats.DuplicatesRemoved = len(result.Removed)
	result.Stats.Efficiency = float64(result.Stats.Retained) / float64(result.Stats.Input)

	if e.metrics {
		e.logger.Info("deduplication metrics",
			slog.Int("input", result.Stats.Input),
			slog.Int("clusters", result.Stats.Clusters),
			slog.Int("duplicates_removed", result.Stats.DuplicatesRemoved),
			slog.Float64("efficiency", result.Stats.Efficiency),
		)
	}
	return result, nil
}

// cluster unions candidate duplicates. Exact URL matches union through
// a map; similarity matches union within blocks sharing a canonical
// name token, which avoids the full pairwise comparison.
func (e *Engine) cluster(ctx context.Context, channels []*models.Channel) []int {
	parent := make([]int, len(channels))
	for i := range parent {
		parent[i] = i
	}

	byURL := make(map[string]int, len(channels))
	urls := make([]string, len(channels))
	grams := make([]map[string]bool, len(channels))
	tokens := make([][]string, len(channels))

	for i, ch := range channels {
		urls[i] = urlutil.Normalize(ch.StreamURL)
		grams[i] = trigrams(urls[i])
		tokens[i] = textnorm.Tokens(ch.Name)

		if first, seen := byURL[urls[i]]; seen {
			union(parent, first, i)
		} else {
			byURL[urls[i]] = i
		}
	}

	// Token blocking: only channels sharing at least one canonical name
	// token can clear a 0.95 name threshold.
	blocks := make(map[string][]int)
	for i, toks := range tokens {
		for _, t := range toks {
			blocks[t] = append(blocks[t], i)
		}
	}

	for _, block := range blocks {
		if ctx.Err() != nil {
			return parent
		}
		for x := 0; x < len(block); x++ {
			for y := x + 1; y < len(block); y++ {
				i, j := block[x], block[y]
				if find(parent, i) == find(parent, j) {
					continue
				}
				if jaccardTokens(tokens[i], tokens[j]) >= e.nameThreshold &&
					trigramSimilarity(grams[i], grams[j]) >= e.urlThreshold {
					union(parent, i, j)
				}
			}
		}
	}
	return parent
}

// elect picks the representative using the tie-break ladder: probe
// success (prioritize_working), quality rank (HD upgrade), source
// priority, then smallest original index.
func (e *Engine) elect(ctx context.Context, members []*models.Channel) *models.Channel {
	if len(members) == 1 {
		return members[0]
	}

	working := make(map[string]bool, len(members))
	if e.strategy == StrategyPrioritizeWorking && e.prober != nil {
		for _, m := range members {
			working[m.ID] = e.prober.ProbeQuick(ctx, m.StreamURL)
		}
	}

	best := members[0]
	for _, candidate := range members[1:] {
		if e.better(candidate, best, working) {
			best = candidate
		}
	}
	return best
}

func (e *Engine) better(candidate, incumbent *models.Channel, working map[string]bool) bool {
	if len(working) > 0 && working[candidate.ID] != working[incumbent.ID] {
		return working[candidate.ID]
	}
	if e.hdUpgrade {
		if cr, ir := candidate.Quality.Rank(), incumbent.Quality.Rank(); cr != ir {
			return cr > ir
		}
	}
	if e.sourceOrder != nil {
		cp, cok := e.sourceOrder[candidate.Source]
		ip, iok := e.sourceOrder[incumbent.Source]
		if cok && iok && cp != ip {
			return cp < ip
		}
		if cok != iok {
			return cok
		}
	}
	return candidate.OriginalIndex < incumbent.OriginalIndex
}

// find is path-compressing union-find lookup.
func find(parent []int, i int) int {
	for parent[i] != i {
		parent[i] = parent[parent[i]]
		i = parent[i]
	}
	return i
}

func union(parent []int, i, j int) {
	ri, rj := find(parent, i), find(parent, j)
	if ri != rj {
		// Attach the later root under the earlier so roots keep the
		// smallest index in their cluster.
		if ri < rj {
			parent[rj] = ri
		} else {
			parent[ri] = rj
		}
	}
}
