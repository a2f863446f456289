package enrich

import (
	"strings"

	"github.com/tvforge/tvforge/internal/textnorm"
)

// DefaultGenre is assigned when no classification rule matches.
const DefaultGenre = "General"

// genreRules maps name keywords to a primary category. First match in
// declaration order wins, so more specific families come first.
var genreRules = []struct {
	genre    string
	keywords []string
}{
	{"Sports", []string{"sport", "deporte", "deportes", "espn", "futbol", "football", "soccer", "gol", "racing", "motor", "nba", "nfl", "mlb", "ufc", "boxing", "tennis", "golf"}},
	{"News", []string{"news", "noticias", "cnn", "bbc", "24h", "weather"}},
	{"Movies", []string{"cine", "cinema", "movie", "film", "hbo", "premiere", "action"}},
	{"Kids", []string{"kids", "cartoon", "junior", "infantil", "nick", "disney", "anime"}},
	{"Music", []string{"music", "musica", "mtv", "radio", "hits", "fm"}},
	{"Documentary", []string{"documentary", "documental", "discovery", "history", "geo", "nature", "science"}},
	{"Entertainment", []string{"comedy", "novela", "series", "drama", "reality", "show"}},
}

// InferGenre classifies a channel name into a primary category. The
// match runs over folded whole tokens, so "GOLF" never matches "gol".
func InferGenre(name string) string {
	tokens := strings.Fields(textnorm.Fold(name))
	joined := " " + strings.Join(tokens, " ") + " "
	for _, rule := range genreRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(joined, " "+keyword+" ") {
				return rule.genre
			}
		}
	}
	// Substring pass catches compounds like "DEPORTESTV".
	folded := textnorm.Fold(name)
	for _, rule := range genreRules {
		for _, keyword := range rule.keywords {
			if len(keyword) >= 4 && strings.Contains(folded, keyword) {
				return rule.genre
			}
		}
	}
	return DefaultGenre
}
