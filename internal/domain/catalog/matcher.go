package catalog

import (
	"strings"
)

// DefaultMatchThreshold is the minimum token-overlap score required for a
// fuzzy match to be accepted.
const DefaultMatchThreshold = 0.7

// minTokenLength filters out short filler tokens ("of", "dz", numbers like
// "15") that would inflate overlap scores.
const minTokenLength = 2

// Match is the result of scoring a raw description against the catalog
type Match struct {
	Item  *Item
	Score float64
}

// MatchTokens splits a normalized description into matchable tokens,
// keeping only tokens longer than two characters.
func MatchTokens(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// OverlapScore computes the token-overlap score between two token sets:
// matches / max(len(a), len(b)). Returns 0 when either side has no tokens.
func OverlapScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}

	matches := 0
	for _, t := range a {
		if _, ok := set[t]; ok {
			matches++
		}
	}

	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(matches) / float64(denom)
}

// BestMatch scans the catalog items for the highest-scoring fuzzy match
// against the raw description. Ties are broken by iteration order: the first
// item reaching the top score wins, which keeps resolution deterministic.
// The scan is O(len(items)); catalog sizes are bounded (hundreds to low
// thousands) and resolution runs in batch, off the request path.
func BestMatch(rawDescription string, items []Item) Match {
	rawTokens := MatchTokens(NormalizeDescription(rawDescription))

	best := Match{}
	for i := range items {
		nameTokens := MatchTokens(items[i].NormalizedName())
		score := OverlapScore(rawTokens, nameTokens)
		if score > best.Score {
			best = Match{Item: &items[i], Score: score}
		}
	}
	return best
}
