package insights

import (
	"reflect"
	"testing"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
)

func actionsOpenSet() incident.Dataset {
	return incident.Dataset{
		{Key: "C-1", Status: "In Progress", Priority: "High", Created: daysAgo(40)},
		{Key: "P-1", Status: "In Progress", Priority: "Medium", Assignee: "ana", Created: daysAgo(3)},
		{Key: "B-1", Status: "Blocked", Priority: "Medium", Assignee: "luis", Created: daysAgo(10)},
		{Key: "N-1", Status: "New", Priority: "Low", Assignee: "ana", Created: daysAgo(1)},
	}
}

func TestNextBestActions_Triggers(t *testing.T) {
	tests := []struct {
		name   string
		snap   Snapshot
		title  string
		filter incident.Filter
	}{
		{
			name:   "critical unassigned",
			snap:   Snapshot{SnapCriticalUnassigned: 1},
			title:  "Assign owners to critical work",
			filter: incident.Filter{Priority: []string{"High"}, Assignee: []string{incident.Unassigned}},
		},
		{
			name:   "blocked share at trigger",
			snap:   Snapshot{SnapBlockedCount: 1, SnapBlockedPct: 0.08},
			title:  "Review active blocks",
			filter: incident.Filter{Status: []string{"Blocked"}},
		},
		{
			name:   "positive net flow focuses the top active status",
			snap:   Snapshot{SnapNet14: 3},
			title:  "Rebalance intake and closure",
			filter: incident.Filter{Status: []string{"In Progress"}},
		},
		{
			name:  "aged queue",
			snap:  Snapshot{SnapAged30Pct: 0.25},
			title: "Work the aged queue",
		},
		{
			name:  "duplicates",
			snap:  Snapshot{SnapDuplicateShare: 0.10},
			title: "Consolidate duplicates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextBestActions(tt.snap, nil, actionsOpenSet())
			if len(got) != 1 {
				t.Fatalf("actions = %+v, want 1", got)
			}
			if got[0].Title != tt.title {
				t.Errorf("Title = %q, want %q", got[0].Title, tt.title)
			}
			if got[0].ExpectedImpact == "" {
				t.Error("ExpectedImpact is empty")
			}
			if tt.filter.IsEmpty() {
				if !got[0].Filter.IsEmpty() {
					t.Errorf("Filter = %+v, want empty", got[0].Filter)
				}
				return
			}
			if !reflect.DeepEqual(got[0].Filter, tt.filter) {
				t.Errorf("Filter = %+v, want %+v", got[0].Filter, tt.filter)
			}
		})
	}
}

func TestNextBestActions_BelowTriggers(t *testing.T) {
	snap := Snapshot{
		SnapBlockedCount:   1,
		SnapBlockedPct:     0.05,
		SnapNet14:          -2,
		SnapAged30Pct:      0.24,
		SnapDuplicateShare: 0.09,
	}
	got := NextBestActions(snap, nil, actionsOpenSet())
	if !reflect.DeepEqual(got, []Action{FollowUpAction}) {
		t.Errorf("actions = %+v, want follow-up only", got)
	}
}

func TestNextBestActions_Order(t *testing.T) {
	snap := Snapshot{
		SnapCriticalUnassigned: 1,
		SnapBlockedCount:       1,
		SnapBlockedPct:         0.25,
		SnapNet14:              2,
		SnapAged30Pct:          0.5,
		SnapDuplicateShare:     0.2,
	}
	cards := []Card{{Title: "Ignored while triggers fire"}}
	var titles []string
	for _, a := range NextBestActions(snap, cards, actionsOpenSet()) {
		titles = append(titles, a.Title)
	}
	want := []string{
		"Assign owners to critical work",
		"Review active blocks",
		"Rebalance intake and closure",
		"Work the aged queue",
		"Consolidate duplicates",
	}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestNextBestActions_TopCardFallback(t *testing.T) {
	cards := []Card{
		{Title: "Status bottleneck", Body: "Half the backlog sits in one status.", Filter: incident.Filter{Status: []string{"blocked"}}},
		{Title: "Second card"},
	}
	got := NextBestActions(Snapshot{}, cards, actionsOpenSet())
	if len(got) != 1 {
		t.Fatalf("actions = %+v, want 1", got)
	}
	if got[0].Title != "Status bottleneck" || got[0].Body != "Half the backlog sits in one status." {
		t.Errorf("action = %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Filter.Status, []string{"Blocked"}) {
		t.Errorf("Filter.Status = %v, want [Blocked]", got[0].Filter.Status)
	}
}

func TestNextBestActions_FollowUpFallback(t *testing.T) {
	got := NextBestActions(Snapshot{}, nil, nil)
	if !reflect.DeepEqual(got, []Action{FollowUpAction}) {
		t.Errorf("actions = %+v, want follow-up", got)
	}
}

func TestNextBestActions_RelaxesUnmatchedFilter(t *testing.T) {
	// Nobody critical is unassigned in this open set, so the assignee
	// constraint is dropped to keep the drill-down non-empty.
	open := incident.Dataset{
		{Key: "C-1", Status: "In Progress", Priority: "High", Assignee: "ana", Created: daysAgo(2)},
		{Key: "U-1", Status: "New", Priority: "Low", Created: daysAgo(2)},
	}
	got := NextBestActions(Snapshot{SnapCriticalUnassigned: 1}, nil, open)
	want := incident.Filter{Priority: []string{"High"}}
	if !reflect.DeepEqual(got[0].Filter, want) {
		t.Errorf("Filter = %+v, want %+v", got[0].Filter, want)
	}
}

func TestFocusStatus(t *testing.T) {
	if got := focusStatus(actionsOpenSet()); got != "In Progress" {
		t.Errorf("focusStatus = %q, want In Progress", got)
	}
	inactive := incident.Dataset{{Key: "N-1", Status: "New"}, {Key: "N-2", Status: "New"}, {Key: "X-1"}}
	if got := focusStatus(inactive); got != "New" {
		t.Errorf("focusStatus = %q, want New", got)
	}
	if got := focusStatus(nil); got != "" {
		t.Errorf("focusStatus(nil) = %q, want empty", got)
	}
}

func TestTakeSnapshot_FlowDays(t *testing.T) {
	ds := incident.Dataset{
		{Key: "F-1", Status: "New", Created: daysAgo(1)},
		{Key: "F-2", Status: "New", Created: daysAgo(5)},
		{Key: "F-3", Status: "Done", Created: daysAgo(20), Resolved: ptr(daysAgo(6))},
	}

	snap := TakeSnapshot(inputFor(ds), DefaultThresholds())
	if snap[SnapCreated14] != 2 || snap[SnapResolved14] != 1 || snap[SnapFlowDays] != 14 {
		t.Errorf("default horizon snapshot = %v", snap)
	}

	th := DefaultThresholds()
	th.FlowDays = 3
	snap = TakeSnapshot(inputFor(ds), th)
	if snap[SnapCreated14] != 1 || snap[SnapResolved14] != 0 || snap[SnapNet14] != 1 || snap[SnapFlowDays] != 3 {
		t.Errorf("3-day horizon snapshot = %v", snap)
	}

	lines := OpsBrief(inputFor(ds), th)
	found := false
	for _, l := range lines {
		if l == "Flow pressure 3d: +1 net (in 1 vs closed 0)." {
			found = true
		}
	}
	if !found {
		t.Errorf("OpsBrief = %v, want a 3-day flow line", lines)
	}
}
