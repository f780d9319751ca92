package kpi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

var refNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return refNow.AddDate(0, 0, -n) }

func ptr(t time.Time) *time.Time { return &t }

func TestClampWindowDays(t *testing.T) {
	tests := []struct{ in, want int }{
		{-3, 1}, {0, 1}, {1, 1}, {14, 14}, {365, 365}, {900, 365},
	}
	for _, tt := range tests {
		if got := ClampWindowDays(tt.in); got != tt.want {
			t.Errorf("ClampWindowDays(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := NewWindow(refNow, 7)
	if !w.Contains(w.Start()) {
		t.Error("start should be inclusive")
	}
	if !w.Contains(refNow) {
		t.Error("now should be inclusive")
	}
	if w.Contains(refNow.Add(time.Second)) {
		t.Error("future timestamps are outside the window")
	}
	if w.Contains(daysAgo(8)) {
		t.Error("timestamps before start are outside the window")
	}
	if w.Contains(time.Time{}) {
		t.Error("zero time is never inside")
	}
}

func TestParseBuckets(t *testing.T) {
	b, err := ParseBuckets(DefaultBuckets)
	if err != nil {
		t.Fatalf("ParseBuckets: %v", err)
	}
	if len(b) != 4 {
		t.Fatalf("len = %d, want 4", len(b))
	}
	if b[3].Min != 90 || b[3].Max != -1 {
		t.Errorf("open-ended bucket = %+v", b[3])
	}
	if !b[1].Contains(8) || !b[1].Contains(30) || b[1].Contains(31) {
		t.Errorf("bucket %+v bounds wrong", b[1])
	}

	for _, bad := range []string{"", "x", "5-2", ">y", "1-"} {
		if _, err := ParseBuckets(bad); err == nil {
			t.Errorf("ParseBuckets(%q) should fail", bad)
		}
	}
}

func sampleDataset() incident.Dataset {
	return incident.Dataset{
		{Key: "A-1", Status: "New", Priority: "High", Created: daysAgo(3)},
		{Key: "A-2", Status: "In Progress", Priority: "Critical", Created: daysAgo(40)},
		{Key: "A-3", Status: "Closed", Priority: "High", Created: daysAgo(10), Resolved: ptr(daysAgo(4))},
		{Key: "A-4", Status: "Done", Priority: "Low", Created: daysAgo(60), Resolved: ptr(daysAgo(2))},
		{Key: "A-5", Status: "Blocked", Priority: "", Created: daysAgo(120)},
		{Key: "A-6", Status: "", Priority: "Medium"},
		{Key: "A-7", Status: "Accepted", Priority: "Medium", Created: daysAgo(6), Resolved: ptr(daysAgo(6))},
	}
}

func TestCompute_Partition(t *testing.T) {
	ds := sampleDataset()
	s := Compute(ds, NewWindow(refNow, 14), Options{})

	if s.Total != len(ds) {
		t.Errorf("Total = %d, want %d", s.Total, len(ds))
	}
	if s.Open+s.Closed != s.Total {
		t.Errorf("Open(%d)+Closed(%d) != Total(%d)", s.Open, s.Closed, s.Total)
	}
	if s.Open != 4 || s.Closed != 3 {
		t.Errorf("Open/Closed = %d/%d, want 4/3", s.Open, s.Closed)
	}

	bucketed := s.AgeUnknown
	for _, b := range s.AgeBuckets {
		bucketed += b.Count
	}
	if bucketed != s.Open {
		t.Errorf("bucket counts + unknown = %d, want %d", bucketed, s.Open)
	}
	if s.AgeUnknown != 1 {
		t.Errorf("AgeUnknown = %d, want 1", s.AgeUnknown)
	}
}

func TestCompute_WindowCounts(t *testing.T) {
	s := Compute(sampleDataset(), NewWindow(refNow, 14), Options{})

	if s.CreatedInWindow != 3 {
		t.Errorf("CreatedInWindow = %d, want 3", s.CreatedInWindow)
	}
	if s.ClosedInWindow != 3 {
		t.Errorf("ClosedInWindow = %d, want 3", s.ClosedInWindow)
	}
	if s.NetDelta != 0 {
		t.Errorf("NetDelta = %d, want 0", s.NetDelta)
	}
}

func TestCompute_MeanResolution(t *testing.T) {
	s := Compute(sampleDataset(), NewWindow(refNow, 14), Options{})

	// A-3 (6 days) and A-7 (0 days); A-4 was created before the window.
	if !s.MeanResolution.OK {
		t.Fatal("expected mean resolution data")
	}
	if s.MeanResolution.Value != 3 {
		t.Errorf("MeanResolution = %v, want 3", s.MeanResolution.Value)
	}
	if s.ResolvedSamples != 2 {
		t.Errorf("ResolvedSamples = %d, want 2", s.ResolvedSamples)
	}
	if d := s.MeanResolutionByPriority["High"]; !d.OK || d.Value != 6 {
		t.Errorf("High mean = %+v, want 6", d)
	}
	rows := s.ResolutionByPriority()
	if len(rows) != 2 || rows[0].Priority != "High" {
		t.Errorf("ResolutionByPriority = %+v", rows)
	}
}

func TestCompute_NoDataIsExplicit(t *testing.T) {
	ds := incident.Dataset{{Key: "A-1", Status: "New", Created: daysAgo(1)}}
	s := Compute(ds, NewWindow(refNow, 14), Options{})
	if s.MeanResolution != NoData {
		t.Errorf("MeanResolution = %+v, want NoData", s.MeanResolution)
	}

	raw, err := json.Marshal(s.MeanResolution)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "null" {
		t.Errorf("NoData JSON = %s, want null", raw)
	}
}

func TestCompute_OpenBreakdowns(t *testing.T) {
	s := Compute(sampleDataset(), NewWindow(refNow, 14), Options{})

	if s.OpenByPriority[incident.NoPriority] != 1 {
		t.Errorf("OpenByPriority = %v", s.OpenByPriority)
	}
	if s.OpenByStatus[incident.NoStatus] != 1 || s.OpenByStatus["Blocked"] != 1 {
		t.Errorf("OpenByStatus = %v", s.OpenByStatus)
	}
	// A-2 (40d) and A-5 (120d) out of 4 open.
	if s.OpenOverShare != 0.5 {
		t.Errorf("OpenOverShare = %v, want 0.5", s.OpenOverShare)
	}
}

func TestCompute_CustomFinals(t *testing.T) {
	ds := incident.Dataset{
		{Key: "A-1", Status: "Ready to Verify", Created: daysAgo(1)},
		{Key: "A-2", Status: "Closed", Created: daysAgo(1)},
	}
	s := Compute(ds, NewWindow(refNow, 14), Options{Classifier: status.NewClassifier([]string{"ready to verify"})})
	if s.Open != 1 || s.Closed != 1 {
		t.Errorf("Open/Closed = %d/%d, want 1/1", s.Open, s.Closed)
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, NewWindow(refNow, 14), Options{})
	if s.Total != 0 || s.Open != 0 || s.OpenOverShare != 0 || s.MeanResolution.OK {
		t.Errorf("empty snapshot = %+v", s)
	}
	if len(s.AgeBuckets) != 4 {
		t.Errorf("AgeBuckets = %d, want default layout", len(s.AgeBuckets))
	}
}

func TestDailyFlow(t *testing.T) {
	ds := incident.Dataset{
		{Key: "A-1", Created: daysAgo(0)},
		{Key: "A-2", Created: daysAgo(1)},
		{Key: "A-3", Created: daysAgo(1), Resolved: ptr(daysAgo(0))},
		{Key: "A-4", Created: daysAgo(20)},
	}
	days := DailyFlow(ds, refNow, 3)
	if len(days) != 3 {
		t.Fatalf("len = %d, want 3", len(days))
	}
	last := days[2]
	if last.Created != 1 || last.Closed != 1 || last.Net != 0 {
		t.Errorf("last day = %+v", last)
	}
	if days[1].Created != 2 {
		t.Errorf("previous day created = %d, want 2", days[1].Created)
	}
	if last.Backlog != 2 {
		t.Errorf("backlog = %d, want 2", last.Backlog)
	}
}

func TestDailyFlow_AcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// Clocks move forward on 2024-03-31 in Madrid.
	now := time.Date(2024, 4, 5, 12, 0, 0, 0, loc)
	created := time.Date(2024, 4, 2, 10, 0, 0, 0, loc)
	days := DailyFlow(incident.Dataset{{Key: "A-1", Created: created}}, now, 14)

	for i, d := range days {
		want := 0
		if d.Date.Day() == 2 && d.Date.Month() == time.April {
			want = 1
		}
		if d.Created != want {
			t.Errorf("day %d (%s) created = %d, want %d", i, d.Date.Format("2006-01-02"), d.Created, want)
		}
	}
	if days[len(days)-1].Date.Day() != 5 {
		t.Errorf("last day = %s, want 2024-04-05", days[len(days)-1].Date.Format("2006-01-02"))
	}
}

func TestDaysBetween(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	a := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	b := time.Date(2024, 3, 12, 0, 0, 0, 0, loc)
	if got := daysBetween(a, b); got != 3 {
		t.Errorf("daysBetween = %d, want 3", got)
	}
	if got := daysBetween(b, b); got != 0 {
		t.Errorf("same day = %d, want 0", got)
	}
}

func TestBacklogTrend(t *testing.T) {
	var days []FlowDay
	for i := 0; i < 10; i++ {
		days = append(days, FlowDay{Date: daysAgo(10 - i), Backlog: i * 2})
	}
	tr := BacklogTrend(days)
	if tr.Direction != "increasing" {
		t.Errorf("Direction = %s, want increasing", tr.Direction)
	}
	if tr.Velocity < 1.99 || tr.Velocity > 2.01 {
		t.Errorf("Velocity = %v, want ~2", tr.Velocity)
	}

	if got := BacklogTrend(days[:1]); got.Direction != "stable" {
		t.Errorf("single point direction = %s", got.Direction)
	}
}
