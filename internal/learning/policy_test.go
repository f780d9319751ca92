package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func recordWith(id string, stats PatternStats) *Record {
	rec := NewRecord(NewScopeKey("ES", "jira-1"))
	rec.Patterns[id] = &stats
	return rec
}

func TestMultiplier_UnknownPatternIsNeutral(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, 1.0, p.Multiplier(nil, "flow.pressure", refNow))
	require.Equal(t, 1.0, p.Multiplier(NewRecord(NewScopeKey("", "")), "flow.pressure", refNow))
}

func TestMultiplier_FatigueIsMonotonic(t *testing.T) {
	p := DefaultPolicy()
	prev := 2.0
	var last float64
	for n := 1; n <= 30; n++ {
		rec := recordWith("aging.backlog", PatternStats{Shown: n, ShownSinceClick: n, LastShown: refNow})
		m := p.Multiplier(rec, "aging.backlog", refNow)
		require.LessOrEqual(t, m, prev, "multiplier increased at n=%d", n)
		require.GreaterOrEqual(t, m, p.Floor)
		require.Greater(t, m, 0.0)
		prev = m
		last = m
	}
	require.Equal(t, p.Floor, last)
}

func TestMultiplier_GraceShow(t *testing.T) {
	p := DefaultPolicy()
	rec := recordWith("x", PatternStats{Shown: 1, ShownSinceClick: 1, LastShown: refNow})
	require.Equal(t, 1.0, p.Multiplier(rec, "x", refNow))
}

func TestMultiplier_NoveltyAfterRecoveryWindow(t *testing.T) {
	p := DefaultPolicy()
	stale := PatternStats{Shown: 20, ShownSinceClick: 20, LastShown: refNow.Add(-8 * 24 * time.Hour)}
	m := p.Multiplier(recordWith("x", stale), "x", refNow)
	require.GreaterOrEqual(t, m, 1.0)

	longer := stale
	longer.LastShown = refNow.Add(-22 * 24 * time.Hour)
	require.Greater(t, p.Multiplier(recordWith("x", longer), "x", refNow), m)

	ancient := stale
	ancient.LastShown = refNow.AddDate(-1, 0, 0)
	require.Equal(t, p.MaxBoost, p.Multiplier(recordWith("x", ancient), "x", refNow))
}

func TestMultiplier_SessionRecovery(t *testing.T) {
	p := DefaultPolicy()
	rec := recordWith("x", PatternStats{Shown: 10, ShownSinceClick: 10, LastShown: refNow, LastShownSession: 1})
	rec.Sessions = 2
	require.Less(t, p.Multiplier(rec, "x", refNow), 1.0)

	rec.Sessions = 4
	require.GreaterOrEqual(t, p.Multiplier(rec, "x", refNow), 1.0)
}

func TestMultiplier_EngagementBonus(t *testing.T) {
	p := DefaultPolicy()
	rec := recordWith("x", PatternStats{Shown: 2, Clicked: 2, LastShown: refNow, LastClicked: refNow})
	require.InDelta(t, 1.2, p.Multiplier(rec, "x", refNow), 1e-9)
}

func TestScore_StrongSignalKeepsFloor(t *testing.T) {
	p := DefaultPolicy()
	rec := recordWith("x", PatternStats{Shown: 40, ShownSinceClick: 40, LastShown: refNow})

	require.InDelta(t, 0.9*p.StrongFloor, p.Score(0.9, rec, "x", refNow), 1e-9)
	require.InDelta(t, 0.5*p.Floor, p.Score(0.5, rec, "x", refNow), 1e-9)
	require.Equal(t, 0.0, p.Score(0, rec, "x", refNow))
	require.Equal(t, 0.0, p.Score(-1, rec, "x", refNow))
}
