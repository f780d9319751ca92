package insights

import (
	"fmt"
	"math"
	"sort"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// Snapshot keys.
const (
	SnapOpenTotal          = "open_total"
	SnapBlockedCount       = "blocked_count"
	SnapBlockedPct         = "blocked_pct"
	SnapCriticalCount      = "critical_count"
	SnapCriticalPct        = "critical_pct"
	SnapUnassignedCount    = "unassigned_count"
	SnapCriticalUnassigned = "critical_unassigned_count"
	SnapAged30Count        = "aged30_count"
	SnapAged30Pct          = "aged30_pct"
	SnapTopStatusShare     = "top_status_share"
	SnapCreated14          = "created_14"
	SnapResolved14         = "resolved_14"
	SnapNet14              = "net_14"
	SnapDuplicateIssues    = "duplicate_issues"
	SnapDuplicateShare     = "duplicate_share"
	SnapStale14Count       = "stale_14_count"
	SnapStale14Pct         = "stale_14_pct"
	SnapFlowDays           = "flow_days"
)

// defaultFlowDays is the created/resolved horizon when Thresholds.FlowDays
// is unset.
const defaultFlowDays = 14

func (th Thresholds) flowDays() int {
	if th.FlowDays > 0 {
		return kpi.ClampWindowDays(th.FlowDays)
	}
	return defaultFlowDays
}

// flowDaysOf reads the horizon a snapshot was taken with.
func flowDaysOf(snap Snapshot) int {
	if d := int(snap[SnapFlowDays]); d > 0 {
		return d
	}
	return defaultFlowDays
}

// Snapshot is a flat set of named operational figures, persisted between
// sessions to describe what changed.
type Snapshot map[string]float64

// TakeSnapshot measures in at in.KPIs.Window.Now.
func TakeSnapshot(in Input, th Thresholds) Snapshot {
	c := newContext(in)
	open := c.Open()
	total := len(open)

	blocked := open.Count(func(i incident.Incident) bool { return status.IsBlocked(i.Status) })
	critical := open.Count(isCritical)
	unassigned := open.Count(func(i incident.Incident) bool { return !assigned(i) })
	critUnassigned := open.Count(func(i incident.Incident) bool { return isCritical(i) && !assigned(i) })
	aged := open.Count(func(i incident.Incident) bool { return i.AgeDays(c.Now) > th.AgeDays })
	stale := open.Count(func(i incident.Incident) bool { return i.StaleDays(c.Now) > th.StaleDays })

	flowDays := th.flowDays()
	created14, resolved14 := tail(kpi.DailyFlow(in.Dataset, c.Now, flowDays), flowDays)

	dupIssues := 0
	for _, g := range ExactDuplicates(open) {
		dupIssues += len(g.Keys)
	}

	topShare := 0.0
	if ranked := incident.Ranked(open.Counts(incident.DimStatus)); len(ranked) > 0 {
		topShare = share(ranked[0].Count, total)
	}

	return Snapshot{
		SnapOpenTotal:          float64(total),
		SnapBlockedCount:       float64(blocked),
		SnapBlockedPct:         share(blocked, total),
		SnapCriticalCount:      float64(critical),
		SnapCriticalPct:        share(critical, total),
		SnapUnassignedCount:    float64(unassigned),
		SnapCriticalUnassigned: float64(critUnassigned),
		SnapAged30Count:        float64(aged),
		SnapAged30Pct:          share(aged, total),
		SnapTopStatusShare:     topShare,
		SnapCreated14:          float64(created14),
		SnapResolved14:         float64(resolved14),
		SnapNet14:              float64(created14 - resolved14),
		SnapDuplicateIssues:    float64(dupIssues),
		SnapDuplicateShare:     share(dupIssues, total),
		SnapStale14Count:       float64(stale),
		SnapStale14Pct:         share(stale, total),
		SnapFlowDays:           float64(flowDays),
	}
}

type deltaMetric struct {
	key   string
	label string
	pct   bool
}

var deltaMetrics = []deltaMetric{
	{SnapOpenTotal, "Open backlog", false},
	{SnapAged30Pct, "Queue older than 30 days", true},
	{SnapBlockedCount, "Blocked", false},
	{SnapCriticalCount, "Open critical", false},
	{SnapStale14Pct, "No movement for 14+ days", true},
	{SnapNet14, "Net flow balance", false},
}

// Messages for DeltaLines edge cases.
const (
	FirstBaselineLine = "No previous reference saved for this scope. This session creates the first baseline."
	NoChangeLine      = "No material changes since the last session for this scope."
)

// DeltaLines describes the largest movements between baseline and current,
// at most three. Counts must move by at least 1, shares by 2 points.
func DeltaLines(current, baseline Snapshot) []string {
	if len(baseline) == 0 {
		return []string{FirstBaselineLine}
	}

	type candidate struct {
		magnitude float64
		order     int
		line      string
	}
	var candidates []candidate
	for i, m := range deltaMetrics {
		cur, base := current[m.key], baseline[m.key]
		d := cur - base
		if m.pct {
			magnitude := math.Abs(d) * 100
			if magnitude < 2 {
				continue
			}
			candidates = append(candidates, candidate{magnitude, i, fmt.Sprintf("%s: %s -> %s (%+.1f pp).",
				m.label, output.FormatPercent(base), output.FormatPercent(cur), d*100)})
			continue
		}
		magnitude := math.Abs(d)
		if magnitude < 1 {
			continue
		}
		candidates = append(candidates, candidate{magnitude, i, fmt.Sprintf("%s: %d -> %d (%+d).",
			m.label, int(base), int(cur), int(d))})
	}

	if len(candidates) == 0 {
		return []string{NoChangeLine}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].magnitude != candidates[j].magnitude {
			return candidates[i].magnitude > candidates[j].magnitude
		}
		return candidates[i].order < candidates[j].order
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = c.line
	}
	return lines
}

// EmptyBacklogLine is the brief for a scope with nothing open.
const EmptyBacklogLine = "No open backlog under the active filters."

// OpsBrief summarizes operational health in at most three lines.
func OpsBrief(in Input, th Thresholds) []string {
	snap := TakeSnapshot(in, th)
	open := int(snap[SnapOpenTotal])
	if open == 0 {
		return []string{EmptyBacklogLine}
	}

	lines := []string{fmt.Sprintf("Open backlog: %d incidents; queue older than %d days: %s (%d).",
		open, th.AgeDays, output.FormatPercent(snap[SnapAged30Pct]), int(snap[SnapAged30Count]))}

	if blocked := int(snap[SnapBlockedCount]); blocked > 0 {
		lines = append(lines, fmt.Sprintf("Active blocks: %d (%s). Needs a daily unblock loop.",
			blocked, output.FormatPercent(snap[SnapBlockedPct])))
	}
	if snap[SnapCriticalPct] >= 0.30 {
		lines = append(lines, fmt.Sprintf("High criticality: %s of the open backlog is High or above.",
			output.FormatPercent(snap[SnapCriticalPct])))
	}
	if snap[SnapStale14Pct] >= th.StaleShare {
		lines = append(lines, fmt.Sprintf("Stagnation: %s of open incidents without updates in more than %d days.",
			output.FormatPercent(snap[SnapStale14Pct]), th.StaleDays))
	}

	created, resolved := int(snap[SnapCreated14]), int(snap[SnapResolved14])
	if created > 0 || resolved > 0 {
		days := flowDaysOf(snap)
		if delta := created - resolved; delta > 0 {
			lines = append(lines, fmt.Sprintf("Flow pressure %dd: +%d net (in %d vs closed %d).", days, delta, created, resolved))
		} else {
			lines = append(lines, fmt.Sprintf("Favourable flow %dd: %d net reduced (closed %d).", days, -delta, resolved))
		}
	}

	if len(lines) > 3 {
		lines = lines[:3]
	}
	return lines
}

// WhatIf describes a capacity scenario in percentages.
type WhatIf struct {
	EntryReductionPct float64 `json:"entryReductionPct"`
	ClosureBoostPct   float64 `json:"closureBoostPct"`
	UnblockPct        float64 `json:"unblockPct"`
}

// Projection is the eight-week outcome of a WhatIf.
type Projection struct {
	WeeklyIn    float64  `json:"weeklyIn"`
	WeeklyOut   float64  `json:"weeklyOut"`
	WeeklyNet   float64  `json:"weeklyNet"`
	Backlog8w   float64  `json:"backlog8w"`
	Delta8w     float64  `json:"delta8w"`
	WeeksToZero *float64 `json:"weeksToZero"`
}

// unblockYield is the share of unblocked incidents that close within a week.
const unblockYield = 0.35

// Simulate projects the backlog eight weeks ahead from a snapshot.
func Simulate(snap Snapshot, w WhatIf) Projection {
	open := snap[SnapOpenTotal]
	weeks := float64(flowDaysOf(snap)) / 7
	inWeek := snap[SnapCreated14] / weeks
	outWeek := snap[SnapResolved14] / weeks

	p := Projection{
		WeeklyIn:  inWeek * (1 - clampRange(w.EntryReductionPct, 0, 95)/100),
		WeeklyOut: outWeek * (1 + clampRange(w.ClosureBoostPct, 0, 300)/100),
	}
	p.WeeklyOut += snap[SnapBlockedCount] * clampRange(w.UnblockPct, 0, 100) / 100 * unblockYield
	p.WeeklyNet = p.WeeklyIn - p.WeeklyOut
	p.Backlog8w = math.Max(open+p.WeeklyNet*8, 0)
	p.Delta8w = p.Backlog8w - open
	if p.WeeklyOut > p.WeeklyIn && open > 0 {
		weeks := open / (p.WeeklyOut - p.WeeklyIn)
		p.WeeksToZero = &weeks
	}
	return p
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
