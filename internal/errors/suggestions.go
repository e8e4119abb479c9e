package errors

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestions caps how many candidates are attached to an error.
const maxSuggestions = 3

// maxEditDistance bounds typo matches that are not subsequence matches.
const maxEditDistance = 2

// Suggest returns the candidates closest to target, best first.
func Suggest(target string, candidates []string) []string {
	if target == "" || len(candidates) == 0 {
		return nil
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	sort.Sort(ranks)

	seen := make(map[string]bool, len(ranks))
	var out []string
	for _, r := range ranks {
		if r.Target == target || seen[r.Target] {
			continue
		}
		seen[r.Target] = true
		out = append(out, r.Target)
	}

	// Typos rarely form a subsequence of the intended name.
	for _, c := range candidates {
		if c == target || seen[c] {
			continue
		}
		if fuzzy.LevenshteinDistance(target, c) <= maxEditDistance {
			seen[c] = true
			out = append(out, c)
		}
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}

	return out
}
