package insights

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestDeltaLines(t *testing.T) {
	if got := DeltaLines(Snapshot{SnapOpenTotal: 3}, nil); !reflect.DeepEqual(got, []string{FirstBaselineLine}) {
		t.Errorf("no baseline = %v", got)
	}

	base := Snapshot{SnapOpenTotal: 10, SnapBlockedCount: 2, SnapAged30Pct: 0.2, SnapCriticalCount: 1, SnapStale14Pct: 0.10}
	if got := DeltaLines(base, base); !reflect.DeepEqual(got, []string{NoChangeLine}) {
		t.Errorf("unchanged = %v", got)
	}

	cur := Snapshot{SnapOpenTotal: 15, SnapBlockedCount: 3, SnapAged30Pct: 0.3, SnapCriticalCount: 3, SnapStale14Pct: 0.11}
	want := []string{
		"Queue older than 30 days: 20% -> 30% (+10.0 pp).",
		"Open backlog: 10 -> 15 (+5).",
		"Open critical: 1 -> 3 (+2).",
	}
	if got := DeltaLines(cur, base); !reflect.DeepEqual(got, want) {
		t.Errorf("DeltaLines =\n%v\nwant\n%v", got, want)
	}
}

func TestTakeSnapshot(t *testing.T) {
	snap := TakeSnapshot(inputFor(mixedDataset()), DefaultThresholds())

	checks := map[string]float64{
		SnapOpenTotal:          8,
		SnapBlockedCount:       1,
		SnapCriticalCount:      3,
		SnapCriticalUnassigned: 2,
		SnapUnassignedCount:    2,
		SnapAged30Count:        3,
		SnapCreated14:          6,
		SnapResolved14:         1,
		SnapNet14:              5,
		SnapDuplicateIssues:    2,
		SnapStale14Count:       1,
	}
	for k, want := range checks {
		if snap[k] != want {
			t.Errorf("%s = %v, want %v", k, snap[k], want)
		}
	}
	if snap[SnapAged30Pct] != 3.0/8 {
		t.Errorf("aged30_pct = %v", snap[SnapAged30Pct])
	}
}

func TestOpsBrief(t *testing.T) {
	lines := OpsBrief(inputFor(mixedDataset()), DefaultThresholds())
	if len(lines) != 3 {
		t.Fatalf("lines = %v, want 3", lines)
	}
	if !strings.HasPrefix(lines[0], "Open backlog: 8 incidents") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Active blocks: 1") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "High criticality") {
		t.Errorf("line 2 = %q", lines[2])
	}

	if got := OpsBrief(inputFor(nil), DefaultThresholds()); !reflect.DeepEqual(got, []string{EmptyBacklogLine}) {
		t.Errorf("empty brief = %v", got)
	}
}

func TestSimulate(t *testing.T) {
	snap := Snapshot{SnapOpenTotal: 100, SnapCreated14: 20, SnapResolved14: 10, SnapBlockedCount: 10}

	p := Simulate(snap, WhatIf{})
	if p.WeeklyNet != 5 || p.Backlog8w != 140 || p.Delta8w != 40 || p.WeeksToZero != nil {
		t.Errorf("baseline projection = %+v", p)
	}

	p = Simulate(snap, WhatIf{ClosureBoostPct: 100, UnblockPct: 100})
	if math.Abs(p.WeeklyOut-13.5) > 1e-9 {
		t.Errorf("WeeklyOut = %v, want 13.5", p.WeeklyOut)
	}
	if p.WeeksToZero == nil || *p.WeeksToZero < 28.5 || *p.WeeksToZero > 28.6 {
		t.Errorf("WeeksToZero = %v", p.WeeksToZero)
	}

	p = Simulate(snap, WhatIf{EntryReductionPct: 500})
	if math.Abs(p.WeeklyIn-0.5) > 1e-9 {
		t.Errorf("entry reduction should cap at 95%%, WeeklyIn = %v", p.WeeklyIn)
	}
}

func TestAssessHealth(t *testing.T) {
	open := newContext(inputFor(mixedDataset())).Open()
	h := AssessHealth(open, refNow, DefaultThresholds())
	if h.Open != 8 || h.BlockedCount != 1 {
		t.Errorf("health = %+v", h)
	}
	if h.Risk <= 0 || h.Risk > 100 {
		t.Errorf("risk = %v", h.Risk)
	}
	if RiskLabel(75) != "high" || RiskLabel(40) != "medium" || RiskLabel(10) != "low" {
		t.Error("RiskLabel thresholds")
	}
}
