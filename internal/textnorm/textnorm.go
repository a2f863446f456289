// Package textnorm normalizes channel names for comparison, matching,
// and filename generation.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	bracketed  = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\{[^}]*\}`)
	// Quality and marketing tokens carry no identity: "ESPN HD FREE"
	// and "ESPN" are the same channel.
	redundantToken = regexp.MustCompile(`\b(?:u?hd|f(?:ull)?hd|sd|4k|8k|2160p|1080[pi]|720p|576p|480p|h26[45]|hevc|free|vip|raw|backup)\b`)
	// Brand suffixes are only noise at the end of a name: "Discovery
	// Channel" folds to "discovery", "Channel 4" stays intact.
	brandSuffix = regexp.MustCompile(`\s+(?:tv|channel|network)$`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	dashRuns    = regexp.MustCompile(`-+`)
)

// accentStripper decomposes to NFD, drops combining marks, recomposes.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s, strips accent marks, and collapses runs of
// whitespace to single spaces.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if stripped, _, err := transform.String(accentStripper, s); err == nil {
		s = stripped
	}
	return whitespace.ReplaceAllString(s, " ")
}

// CanonicalName reduces a channel name to its identity for duplicate
// comparison: folded, bracketed annotations removed, redundant quality
// and marketing tokens removed, trailing brand suffixes trimmed.
func CanonicalName(s string) string {
	s = bracketed.ReplaceAllString(s, " ")
	s = Fold(s)
	s = redundantToken.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	for {
		trimmed := brandSuffix.ReplaceAllString(s, "")
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return s
}

// Tokens returns the comparison tokens of a canonical name.
func Tokens(s string) []string {
	c := CanonicalName(s)
	if c == "" {
		return nil
	}
	return strings.Fields(c)
}

// MatchKey normalizes a name for whole-word priority matching: folded
// with punctuation converted to spaces, so "ESPN: News!" and "espn
// news" compare equal.
func MatchKey(s string) string {
	s = Fold(s)
	s = punctuation.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Slug converts a name into a filesystem and URL safe identifier:
// folded, non-alphanumerics collapsed to single dashes, trimmed,
// capped at 50 bytes. Empty input yields "channel".
func Slug(s string) string {
	s = Fold(s)
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(dashRuns.ReplaceAllString(b.String(), "-"), "-")
	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	if slug == "" {
		return "channel"
	}
	return slug
}

// HasAlnum reports whether s contains at least one letter or digit.
func HasAlnum(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}
