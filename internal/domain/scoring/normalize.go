// Package scoring turns a screening submission into pillar scores, a wellness
// score and an escalation tier.
//
// Everything in this package is pure: no I/O, no shared mutable state, no
// blocking. A Pipeline may be used from any number of goroutines.
package scoring

import "math"

// Score bounds shared by every pillar and by the wellness score.
const (
	minScore = 0
	maxScore = 100
)

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// NormalizeLinear maps value onto [0,100]: 0 at or below inMin, 100 at or
// above inMax, linear in between. Callers must pass inMax > inMin.
func NormalizeLinear(value, inMin, inMax float64) float64 {
	if value <= inMin {
		return minScore
	}
	if value >= inMax {
		return maxScore
	}
	return ((value - inMin) / (inMax - inMin)) * 100
}

// toScore rounds a weighted sum and clamps it into the score range.
func toScore(v float64) int {
	return int(Clamp(math.Round(v), minScore, maxScore))
}

// percent converts a 0-1 fraction into a clamped 0-100 risk.
func percent(fraction float64) float64 {
	return Clamp(fraction*100, minScore, maxScore)
}
