package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholder is rendered for values that have no data.
const Placeholder = "—"

// RoundFloat rounds a float to max 6 decimal places
func RoundFloat(f float64) float64 {
	multiplier := math.Pow(10, 6)
	return math.Round(f*multiplier) / multiplier
}

// FormatFloat formats a float with no trailing zeros
func FormatFloat(f float64) string {
	str := strconv.FormatFloat(RoundFloat(f), 'f', 6, 64)
	str = strings.TrimRight(str, "0")
	return strings.TrimRight(str, ".")
}

// FormatPercent renders a 0-1 share as a whole percentage ("42%").
func FormatPercent(share float64) string {
	if math.IsNaN(share) || math.IsInf(share, 0) {
		return Placeholder
	}
	return fmt.Sprintf("%.0f%%", math.Round(share*100))
}

// FormatDays renders a day count ("12 d"); ok=false renders the placeholder.
func FormatDays(days float64, ok bool) string {
	if !ok || math.IsNaN(days) || math.IsInf(days, 0) {
		return Placeholder
	}
	if days < 10 {
		return FormatFloat(math.Round(days*10)/10) + " d"
	}
	return fmt.Sprintf("%.0f d", math.Round(days))
}

// FormatRatio renders a ratio with two decimals; a zero denominator renders the placeholder.
func FormatRatio(numerator, denominator float64) string {
	if denominator == 0 {
		return Placeholder
	}
	return fmt.Sprintf("%.2f", numerator/denominator)
}
