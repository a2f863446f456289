// Package dedup groups near-duplicate channels and elects one
// representative per group.
package dedup

// jaccardTokens computes Jaccard similarity over two token sets.
// Identical sets score 1; disjoint sets score 0.
func jaccardTokens(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	intersection := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// trigrams returns the set of character 3-grams of s. Strings shorter
// than three bytes use the whole string as a single gram.
func trigrams(s string) map[string]bool {
	grams := make(map[string]bool)
	if len(s) < 3 {
		if s != "" {
			grams[s] = true
		}
		return grams
	}
	for i := 0; i+3 <= len(s); i++ {
		grams[s[i:i+3]] = true
	}
	return grams
}

// trigramSimilarity computes Jaccard similarity over character
// trigrams of two strings.
func trigramSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for g := range a {
		if b[g] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
