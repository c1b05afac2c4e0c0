// Package suggest provides fuzzy "did you mean" matching for option names
// and CLI flags using Levenshtein distance.
package suggest

import (
	"sort"
	"strings"
)

// levenshtein calculates the edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Closest returns up to three candidates close to unknown, best first.
// Candidates containing unknown as a substring always qualify.
func Closest(unknown string, candidates []string) []string {
	unknown = strings.ToLower(unknown)

	type scored struct {
		name  string
		score int
	}
	var matches []scored
	maxDist := max(3, len(unknown)/2)
	for _, c := range candidates {
		dist := levenshtein(unknown, strings.ToLower(c))
		if unknown != "" && strings.Contains(strings.ToLower(c), unknown) {
			dist = min(dist, 1)
		}
		if dist <= maxDist {
			matches = append(matches, scored{c, dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score < matches[j].score
	})

	var result []string
	for i := 0; i < len(matches) && i < 3; i++ {
		result = append(result, matches[i].name)
	}
	return result
}

// Flag finds flags similar to an unknown one. Leading dashes are ignored.
func Flag(unknown string, validFlags []string) []string {
	names := make([]string, len(validFlags))
	for i, f := range validFlags {
		names[i] = strings.TrimLeft(f, "-")
	}
	var result []string
	for _, name := range Closest(strings.TrimLeft(unknown, "-"), names) {
		result = append(result, "--"+name)
	}
	return result
}

// DidYouMean formats suggestions as " (did you mean a or b?)", or "" when
// there are none.
func DidYouMean(suggestions []string) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return " (did you mean " + suggestions[0] + "?)"
	}
	last := len(suggestions) - 1
	return " (did you mean " + strings.Join(suggestions[:last], ", ") + " or " + suggestions[last] + "?)"
}
