package insights

import (
	"fmt"
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// Health is the weighted operational risk of an open backlog.
type Health struct {
	Open          int     `json:"open"`
	AgedShare     float64 `json:"agedShare"`
	BlockedCount  int     `json:"blockedCount"`
	BlockedShare  float64 `json:"blockedShare"`
	CriticalShare float64 `json:"criticalShare"`
	StaleShare    float64 `json:"staleShare"`
	Risk          float64 `json:"risk"` // 0-100
}

// Risk weights: aged 35%, blocked 25%, critical 25%, stale 15%.
const (
	weightAged     = 0.35
	weightBlocked  = 0.25
	weightCritical = 0.25
	weightStale    = 0.15
)

// AssessHealth scores open against now.
func AssessHealth(open incident.Dataset, now time.Time, th Thresholds) Health {
	h := Health{Open: len(open)}
	if h.Open == 0 {
		return h
	}
	aged := open.Count(func(i incident.Incident) bool { return i.AgeDays(now) > th.AgeDays })
	h.BlockedCount = open.Count(func(i incident.Incident) bool { return status.IsBlocked(i.Status) })
	critical := open.Count(isCritical)

	known, stale := 0, 0
	for _, inc := range open {
		if d := inc.StaleDays(now); d >= 0 {
			known++
			if d > th.StaleDays {
				stale++
			}
		}
	}

	h.AgedShare = share(aged, h.Open)
	h.BlockedShare = share(h.BlockedCount, h.Open)
	h.CriticalShare = share(critical, h.Open)
	h.StaleShare = share(stale, known)
	h.Risk = 100 * (weightAged*h.AgedShare + weightBlocked*h.BlockedShare +
		weightCritical*h.CriticalShare + weightStale*h.StaleShare)
	return h
}

// RiskLabel buckets a 0-100 risk score.
func RiskLabel(risk float64) string {
	switch {
	case risk >= 70:
		return "high"
	case risk >= 40:
		return "medium"
	default:
		return "low"
	}
}

// WeightedPriorityRisk sums the impact weight of every open incident.
func WeightedPriorityRisk(open incident.Dataset) float64 {
	var total float64
	for _, inc := range open {
		total += incident.PriorityWeight(incident.PriorityLabel(inc))
	}
	return total
}

func opsHealth(th Thresholds) Pattern {
	return Pattern{
		ID:        "ops.health",
		Category:  CategoryOps,
		MinSignal: th.HealthRisk / 100,
		Eval: func(c *Context) (*Finding, error) {
			h := AssessHealth(c.Open(), c.Now, th)
			if h.Open == 0 {
				return nil, nil
			}
			return &Finding{
				Title:  "Operational risk " + RiskLabel(h.Risk),
				Signal: h.Risk / 100,
				Body: fmt.Sprintf("Risk score %.0f/100: %s older than %d days, %d blocked, "+
					"%s high priority, %s without recent updates.",
					h.Risk, output.FormatPercent(h.AgedShare), th.AgeDays, h.BlockedCount,
					output.FormatPercent(h.CriticalShare), output.FormatPercent(h.StaleShare)),
			}, nil
		},
	}
}
