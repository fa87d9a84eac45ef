package utils

import "strings"

// NameSimilarity compares two display names case-insensitively and returns
// a score between 0.0 (completely different) and 1.0 (identical):
//
//	1 - levenshtein(lower(a), lower(b)) / max(len(a), len(b))
//
// Lengths are counted in runes.
func NameSimilarity(a, b string) float64 {
	runesA := []rune(strings.ToLower(a))
	runesB := []rune(strings.ToLower(b))

	maxLen := max(len(runesA), len(runesB))
	if maxLen == 0 {
		return 1.0
	}

	distance := LevenshteinDistance(runesA, runesB)

	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two rune slices.
// The distance is the minimum number of single-character edits
// (insertions, deletions, or substitutions) required to change one into the other.
func LevenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Only the previous row of the matrix is needed
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
