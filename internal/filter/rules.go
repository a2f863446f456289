// Package filter rejects channel records matching banned rules, unless
// an exemption from the same category applies.
package filter

import (
	"fmt"
	"hash/fnv"
	"net"
	"regexp"
	"sort"
	"strings"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/textnorm"
)

// Category names a rule family. Rejections carry the category so
// reports can say which rule class removed a channel.
type Category string

const (
	CategoryName      Category = "name"
	CategoryURL       Category = "url"
	CategoryIP        Category = "ip"
	CategoryIPRange   Category = "ip_range"
	CategoryPattern   Category = "pattern"
	CategoryContent   Category = "content"
	CategoryAllowlist Category = "allowlist"
)

// contentClass is one keyword family gated by a config flag.
type contentClass struct {
	name     string
	keywords []string
}

// RuleSet is the compiled form of every filtering option. It is built
// once per configuration and holds no mutable state, so one set can
// serve concurrent lookups.
type RuleSet struct {
	bannedNames    []string
	bannedURLs     []string
	bannedIPs      map[string]bool
	bannedRanges   []*net.IPNet
	bannedPatterns []*regexp.Regexp
	contentClasses []contentClass

	allowedNames map[string]bool
	allowedIPs   map[string]bool

	exemptNames []string
	exemptIPs   map[string]bool
	exemptURLs  []string

	// ignoreSources holds provenance labels whose channels bypass all
	// banning, keyed by full label and by basename.
	ignoreSources map[string]bool

	fingerprint uint64
}

// Compile builds a RuleSet from the configuration. Invalid CIDR ranges
// and regex patterns are compile errors: a silently dropped ban rule
// would let banned content through.
func Compile(cfg *config.Config) (*RuleSet, error) {
	rs := &RuleSet{
		bannedIPs:     make(map[string]bool),
		allowedNames:  make(map[string]bool),
		allowedIPs:    make(map[string]bool),
		exemptIPs:     make(map[string]bool),
		ignoreSources: make(map[string]bool),
		fingerprint:   Fingerprint(cfg),
	}

	for _, term := range cfg.BannedNames {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			rs.bannedNames = append(rs.bannedNames, term)
		}
	}
	for _, term := range cfg.BannedUrls {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			rs.bannedURLs = append(rs.bannedURLs, term)
		}
	}
	for _, ip := range cfg.BannedIps {
		if ip = strings.TrimSpace(ip); ip != "" {
			rs.bannedIPs[ip] = true
		}
	}
	for _, cidr := range cfg.BannedIpRanges {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("bannedIpRanges: invalid CIDR %q: %w", cidr, err)
		}
		rs.bannedRanges = append(rs.bannedRanges, ipNet)
	}
	for _, pattern := range cfg.BannedNamePatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("bannedNamePatterns: invalid pattern %q: %w", pattern, err)
		}
		rs.bannedPatterns = append(rs.bannedPatterns, re)
	}

	if cfg.FilterReligiousContent {
		rs.contentClasses = append(rs.contentClasses, contentClass{"religious", lowerAll(cfg.ReligiousKeywords)})
	}
	if cfg.FilterAdultContent {
		rs.contentClasses = append(rs.contentClasses, contentClass{"adult", lowerAll(cfg.AdultKeywords)})
	}
	if cfg.FilterPoliticalContent {
		rs.contentClasses = append(rs.contentClasses, contentClass{"political", lowerAll(cfg.PoliticalKeywords)})
	}

	for _, name := range cfg.AllowedChannels {
		if key := textnorm.MatchKey(name); key != "" {
			rs.allowedNames[key] = true
		}
	}
	for _, ip := range cfg.AllowedIps {
		if ip = strings.TrimSpace(ip); ip != "" {
			rs.allowedIPs[ip] = true
		}
	}

	for _, term := range cfg.IgnoreNamesForFiltering {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			rs.exemptNames = append(rs.exemptNames, term)
		}
	}
	for _, ip := range cfg.IgnoreIpsForFiltering {
		if ip = strings.TrimSpace(ip); ip != "" {
			rs.exemptIPs[ip] = true
		}
	}
	for _, term := range cfg.IgnoreUrlsForFiltering {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			rs.exemptURLs = append(rs.exemptURLs, term)
		}
	}
	for _, file := range cfg.IgnoreFiles {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		rs.ignoreSources[file] = true
		rs.ignoreSources[baseName(file)] = true
	}

	return rs, nil
}

// AllowlistActive reports whether allowed-list mode is on: when any
// allowed channel names are configured, only those names pass.
func (rs *RuleSet) AllowlistActive() bool {
	return len(rs.allowedNames) > 0
}

// SourceExempt reports whether a provenance label bypasses all banning.
// Both the full label and its basename match.
func (rs *RuleSet) SourceExempt(provenance string) bool {
	if provenance == "" {
		return false
	}
	return rs.ignoreSources[provenance] || rs.ignoreSources[baseName(provenance)]
}

func (rs *RuleSet) nameExempt(lowerName string) bool {
	for _, term := range rs.exemptNames {
		if strings.Contains(lowerName, term) {
			return true
		}
	}
	return false
}

func (rs *RuleSet) urlExempt(lowerURL string) bool {
	for _, term := range rs.exemptURLs {
		if strings.Contains(lowerURL, term) {
			return true
		}
	}
	return false
}

func (rs *RuleSet) ipExempt(ip string) bool {
	return rs.exemptIPs[ip] || rs.allowedIPs[ip]
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseHostIP returns the IP when the host is an IP literal, nil for
// hostnames. IP rules never apply to named hosts.
func parseHostIP(host string) net.IP {
	return net.ParseIP(host)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Fingerprint hashes every filtering-relevant option. The engine uses
// it to decide whether a new configuration needs a rule recompile.
func Fingerprint(cfg *config.Config) uint64 {
	h := fnv.New64a()
	write := func(section string, values []string) {
		h.Write([]byte(section))
		sorted := make([]string, len(values))
		copy(sorted, values)
		sort.Strings(sorted)
		for _, v := range sorted {
			h.Write([]byte(v))
			h.Write([]byte{0})
		}
	}
	write("bannedNames", cfg.BannedNames)
	write("bannedNamePatterns", cfg.BannedNamePatterns)
	write("bannedUrls", cfg.BannedUrls)
	write("bannedIps", cfg.BannedIps)
	write("bannedIpRanges", cfg.BannedIpRanges)
	write("allowedChannels", cfg.AllowedChannels)
	write("allowedIps", cfg.AllowedIps)
	write("ignoreNames", cfg.IgnoreNamesForFiltering)
	write("ignoreIps", cfg.IgnoreIpsForFiltering)
	write("ignoreUrls", cfg.IgnoreUrlsForFiltering)
	write("ignoreFiles", cfg.IgnoreFiles)
	write("flags", []string{
		fmt.Sprintf("religious=%t", cfg.FilterReligiousContent),
		fmt.Sprintf("adult=%t", cfg.FilterAdultContent),
		fmt.Sprintf("political=%t", cfg.FilterPoliticalContent),
	})
	write("religiousKeywords", cfg.ReligiousKeywords)
	write("adultKeywords", cfg.AdultKeywords)
	write("politicalKeywords", cfg.PoliticalKeywords)
	return h.Sum64()
}
