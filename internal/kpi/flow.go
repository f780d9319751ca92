package kpi

import (
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
)

// FlowDay is one day of the created/closed series.
type FlowDay struct {
	Date    time.Time `json:"date"`
	Created int       `json:"created"`
	Closed  int       `json:"closed"`
	Net     int       `json:"net"`
	Backlog int       `json:"backlog"` // cumulative net since the first day
}

// DailyFlow returns lookback days of created/closed counts ending on now's
// day, oldest first. Days without activity are present with zero counts.
func DailyFlow(ds incident.Dataset, now time.Time, lookback int) []FlowDay {
	lookback = ClampWindowDays(lookback)
	end := truncateDay(now)
	start := end.AddDate(0, 0, -(lookback - 1))

	days := make([]FlowDay, lookback)
	for i := range days {
		days[i].Date = start.AddDate(0, 0, i)
	}
	index := func(t time.Time) int {
		if t.IsZero() {
			return -1
		}
		d := truncateDay(t.In(now.Location()))
		if d.Before(start) || d.After(end) {
			return -1
		}
		return daysBetween(start, d)
	}

	for _, inc := range ds {
		if i := index(inc.Created); i >= 0 {
			days[i].Created++
		}
		if inc.Resolved != nil {
			if i := index(*inc.Resolved); i >= 0 {
				days[i].Closed++
			}
		}
	}

	backlog := 0
	for i := range days {
		days[i].Net = days[i].Created - days[i].Closed
		backlog += days[i].Net
		days[i].Backlog = backlog
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. DST days are not 24h long,
// so both dates are moved to UTC midnight first.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// Trend is the direction of the backlog proxy over a flow series.
type Trend struct {
	Direction     string  `json:"direction"` // "increasing" | "stable" | "decreasing"
	Velocity      float64 `json:"velocity"`  // backlog change per day
	Projection30d float64 `json:"projection30d"`
	DataPoints    int     `json:"dataPoints"`
}

// BacklogTrend fits a least-squares line to the backlog proxy.
func BacklogTrend(days []FlowDay) Trend {
	if len(days) < 2 {
		return Trend{Direction: "stable", DataPoints: len(days)}
	}

	var sumX, sumY, sumXY, sumX2 float64
	n := float64(len(days))
	base := days[0].Date
	for _, d := range days {
		x := float64(daysBetween(base, d.Date))
		y := float64(d.Backlog)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	// m = (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)
	denominator := n*sumX2 - sumX*sumX
	var velocity float64
	if denominator != 0 {
		velocity = (n*sumXY - sumX*sumY) / denominator
	}

	direction := "stable"
	if velocity > 0.05 {
		direction = "increasing"
	} else if velocity < -0.05 {
		direction = "decreasing"
	}

	return Trend{
		Direction:     direction,
		Velocity:      velocity,
		Projection30d: float64(days[len(days)-1].Backlog) + velocity*30,
		DataPoints:    len(days),
	}
}
