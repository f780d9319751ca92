package incident

import (
	"strings"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/textnorm"
)

// Priority ranks. Lower is more urgent.
const (
	RankCritical = 1
	RankHigh     = 2
	RankMedium   = 3
	RankLow      = 4
	RankLowest   = 5
	RankUnknown  = 99
)

var priorityRanks = map[string]int{
	"supone un impedimento": RankCritical,
	"blocker":               RankCritical,
	"critical":              RankCritical,
	"critica":               RankCritical,
	"highest":               RankCritical,
	"urgent":                RankCritical,
	"high":                  RankHigh,
	"alta":                  RankHigh,
	"medium":                RankMedium,
	"media":                 RankMedium,
	"normal":                RankMedium,
	"low":                   RankLow,
	"baja":                  RankLow,
	"lowest":                RankLowest,
	"trivial":               RankLowest,
}

// CriticalPriorities are offered as filter values for critical-risk cards.
var CriticalPriorities = []string{"Supone un impedimento", "Critical", "Highest", "High"}

// PriorityRank maps a raw priority onto the 1-5 scale, RankUnknown otherwise.
func PriorityRank(raw string) int {
	if r, ok := priorityRanks[textnorm.Key(raw)]; ok {
		return r
	}
	return RankUnknown
}

// IsCritical reports whether raw ranks High or above.
func IsCritical(raw string) bool {
	return PriorityRank(raw) <= RankHigh
}

var rankWeights = map[int]float64{
	RankCritical: 3.0,
	RankHigh:     2.2,
	RankMedium:   1.4,
	RankLow:      1.0,
	RankLowest:   0.8,
}

// PriorityWeight is the impact weight of a priority used for weighted risk.
// "Supone un impedimento" sits between Highest and High.
func PriorityWeight(raw string) float64 {
	if textnorm.Key(raw) == "supone un impedimento" {
		return 2.6
	}
	if strings.TrimSpace(raw) == "" || raw == NoPriority {
		return 1.0
	}
	if w, ok := rankWeights[PriorityRank(raw)]; ok {
		return w
	}
	return 1.1
}
