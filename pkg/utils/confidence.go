package utils

import "math"

// Percent converts a 0-1 score to a whole percentage, rounding half away
// from zero and clamping to 0-100.
func Percent(score float64) int {
	pct := math.Round(score * 100)
	return int(math.Max(0, math.Min(100, pct)))
}
