package service

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// TemplateMatch is one ranked template name.
type TemplateMatch struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

const (
	minMatchScore       = 0.5
	DefaultSuggestLimit = 10
)

// SuggestTemplates ranks template names against query. Exact and prefix hits
// rank first, then substring hits, then names within a small edit distance.
func SuggestTemplates(query string, names []string, limit int) []TemplateMatch {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" || len(names) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	var results []TemplateMatch
	for _, name := range names {
		if name == "" {
			continue
		}
		if score := templateScore(query, strings.ToUpper(name)); score >= minMatchScore {
			results = append(results, TemplateMatch{Name: name, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// templateScore returns a similarity between 0 and 1.
func templateScore(query, name string) float64 {
	switch {
	case query == name:
		return 1.0
	case strings.HasPrefix(name, query):
		return 0.95
	case strings.Contains(name, query):
		return 0.9
	}

	dist := levenshtein.Distance(query, name, nil)
	maxLen := max(len(query), len(name))
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}
