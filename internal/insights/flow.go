package insights

import (
	"fmt"
	"math"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
)

// stallMidpoint is the open count at which a fully stalled exit scores 0.5.
const stallMidpoint = 10

func flowPressure(th Thresholds) Pattern {
	return Pattern{
		ID:        "flow.pressure",
		Category:  CategoryFlow,
		MinSignal: 0.05,
		Eval: func(c *Context) (*Finding, error) {
			k := c.In.KPIs
			created, closed := k.CreatedInWindow, k.ClosedInWindow
			open := len(c.Open())

			var signal float64
			if created+closed > 0 {
				signal = float64(created-closed) / float64(created+closed)
			}
			stalled := closed == 0 && open > 0
			if stalled {
				signal = math.Max(signal, logNormalize(float64(open), stallMidpoint))
			}
			if signal <= 0 {
				return nil, nil
			}

			f := &Finding{
				Title:  "Intake above closure",
				Signal: signal,
				Body: fmt.Sprintf("In the last %d days %d incidents came in and %d were closed (net %+d). "+
					"Without more capacity or cleaner intake the backlog keeps growing.",
					k.Window.Days, created, closed, created-closed),
			}
			if stalled {
				f.Title = "No visible closing capacity"
				f.Body = fmt.Sprintf("Nothing was closed in the last %d days while %d incidents remain open "+
					"(%d new). Unblocking the final stage of the flow comes first.",
					k.Window.Days, open, created)
			}
			return f, nil
		},
	}
}

func flowRunway(th Thresholds) Pattern {
	return Pattern{
		ID:        "flow.runway",
		Category:  CategoryFlow,
		MinSignal: 0.5,
		Eval: func(c *Context) (*Finding, error) {
			open := len(c.Open())
			_, closed30 := tail(c.Flow(), 30)
			if open == 0 || closed30 == 0 {
				return nil, nil
			}
			runRate := float64(closed30) / 30
			runway := float64(open) / runRate
			if runway <= th.RunwayDays {
				return nil, nil
			}
			return &Finding{
				Title:  "Long drain time",
				Signal: logNormalize(runway, th.RunwayDays),
				Body: fmt.Sprintf("Closing %.2f incidents a day, the current open backlog (%d) needs about %s "+
					"to drain with no new demand.", runRate, open, output.FormatDays(runway, true)),
			}, nil
		},
	}
}

// accelWindow is the number of trailing days the acceleration trend is fit on.
const accelWindow = 28

func flowAcceleration(th Thresholds) Pattern {
	return Pattern{
		ID:        "flow.acceleration",
		Category:  CategoryFlow,
		MinSignal: 0.2,
		Eval: func(c *Context) (*Finding, error) {
			days := c.Flow()
			if len(days) > accelWindow {
				days = days[len(days)-accelWindow:]
			}
			tr := kpi.BacklogTrend(days)
			if tr.Velocity <= th.AccelPerDay {
				return nil, nil
			}
			return &Finding{
				Title:  "Backlog accelerating",
				Signal: logNormalize(tr.Velocity, 1),
				Body: fmt.Sprintf("Net backlog is growing by %.1f incidents a day over the last %d days. "+
					"At this pace it adds about %.0f more in a month.", tr.Velocity, len(days), tr.Velocity*30),
			}, nil
		},
	}
}
