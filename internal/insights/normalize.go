package insights

import "math"

// logNormalize maps a non-negative value into [0, 1).
// Returns 0.5 when value equals midpoint.
func logNormalize(value, midpoint float64) float64 {
	if value <= 0 {
		return 0
	}
	// Simplified sigmoid: value / (value + midpoint)
	return value / (value + midpoint)
}

// share is n/total, 0 when total is 0.
func share(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// clamp01 bounds a raw signal. NaN becomes 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
