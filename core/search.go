package core

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

const fuzzyThreshold = 0.8

// Filter returns the games whose name contains query, ignoring case. When no
// name contains it, names that are close to the query by Jaro-Winkler
// similarity (whole name or any single word) are returned instead, so typos
// still find something.
func Filter(games []Game, query string) []Game {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return games
	}

	var matches []Game
	for _, g := range games {
		if strings.Contains(strings.ToLower(g.DisplayName()), query) {
			matches = append(matches, g)
		}
	}
	if len(matches) > 0 {
		return matches
	}

	for _, g := range games {
		if fuzzyMatch(strings.ToLower(g.DisplayName()), query) {
			matches = append(matches, g)
		}
	}
	return matches
}

func fuzzyMatch(name, query string) bool {
	candidates := append([]string{name}, strings.Fields(name)...)
	for _, c := range candidates {
		sim, err := edlib.StringsSimilarity(c, query, edlib.JaroWinkler)
		if err == nil && sim >= fuzzyThreshold {
			return true
		}
	}
	return false
}
