package dataset

import (
	"math"
	"strings"
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
)

// daysPerMonth converts analysis months to days.
const daysPerMonth = 30

// Selection is the UI filter state applied before analysis.
type Selection struct {
	Country        string          `json:"country,omitempty"`
	SourceID       string          `json:"sourceId,omitempty"`
	Filter         incident.Filter `json:"filter"`
	LookbackMonths int             `json:"lookbackMonths"` // 0 means everything
}

// AvailableMonths is the span from the oldest known creation date to now,
// in whole months rounded up, at least 1.
func AvailableMonths(ds incident.Dataset, now time.Time) int {
	var oldest time.Time
	for _, inc := range ds {
		if inc.HasCreated() && (oldest.IsZero() || inc.Created.Before(oldest)) {
			oldest = inc.Created
		}
	}
	if oldest.IsZero() {
		return 1
	}
	days := math.Ceil(math.Max(now.Sub(oldest).Hours()/24, 0))
	months := int(math.Ceil(math.Max(days, 1) / daysPerMonth))
	if months < 1 {
		return 1
	}
	return months
}

// EffectiveLookbackMonths clamps configured to the available backlog.
// configured <= 0 selects everything available.
func EffectiveLookbackMonths(configured int, ds incident.Dataset, now time.Time) int {
	available := AvailableMonths(ds, now)
	if configured <= 0 || configured > available {
		return available
	}
	return configured
}

// Select narrows ds to the selection's scope, analysis window and filter,
// preserving order. Incidents with unknown creation dates are kept only
// when the window covers the whole backlog.
func Select(ds incident.Dataset, sel Selection, now time.Time) incident.Dataset {
	scoped := ds.Where(func(i incident.Incident) bool {
		return matchScope(i.Country, sel.Country) && matchScope(i.SourceID, sel.SourceID)
	})

	if months := EffectiveLookbackMonths(sel.LookbackMonths, scoped, now); months < AvailableMonths(scoped, now) {
		cutoff := now.AddDate(0, 0, -months*daysPerMonth)
		scoped = scoped.Where(func(i incident.Incident) bool {
			return i.HasCreated() && !i.Created.Before(cutoff)
		})
	}

	return sel.Filter.Apply(scoped)
}

func matchScope(value, want string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(strings.TrimSpace(value), want)
}
