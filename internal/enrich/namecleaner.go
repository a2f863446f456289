// Package enrich runs the chunked per-channel enrichment stage: name
// cleaning, genre inference, and artwork synthesis.
package enrich

import (
	"regexp"
	"strings"

	"github.com/tvforge/tvforge/internal/textnorm"
)

var (
	cleanBracketed = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\{[^}]*\}`)
	// Marketing noise carries no identity. Quality markers (HD, 4K)
	// stay: they are display-relevant and feed quality inference.
	cleanNoise      = regexp.MustCompile(`(?i)\b(?:free|vip|raw|backup|24[/-]7)\b`)
	cleanSeparators = regexp.MustCompile(`\s*[|_•·]+\s*`)
	cleanDangling   = regexp.MustCompile(`^[\s\-:.,/]+|[\s\-:.,/]+$`)
	cleanSpaces     = regexp.MustCompile(`\s{2,}`)
)

// CleanName tidies a display name: bracketed annotations, marketing
// noise and odd separators removed, whitespace collapsed. A result
// without any letters or digits is discarded in favor of the input.
func CleanName(name string) string {
	cleaned := cleanBracketed.ReplaceAllString(name, " ")
	cleaned = cleanNoise.ReplaceAllString(cleaned, " ")
	cleaned = cleanSeparators.ReplaceAllString(cleaned, " ")
	cleaned = cleanSpaces.ReplaceAllString(cleaned, " ")
	cleaned = cleanDangling.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || !textnorm.HasAlnum(cleaned) {
		return name
	}
	return cleaned
}
