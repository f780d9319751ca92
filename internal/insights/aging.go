package insights

import (
	"fmt"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
)

func agingBacklog(th Thresholds) Pattern {
	return Pattern{
		ID:        "aging.backlog",
		Category:  CategoryAging,
		MinSignal: th.AgedShare,
		Eval: func(c *Context) (*Finding, error) {
			open := c.Open()
			over := c.countOpen(func(i incident.Incident) bool {
				return i.AgeDays(c.Now) > th.AgeDays
			})
			if over == 0 {
				return nil, nil
			}
			s := share(over, len(open))
			return &Finding{
				Title:  "Aged backlog",
				Signal: s,
				Body: fmt.Sprintf("%s of the open backlog (%d of %d) is older than %d days. "+
					"Long queues get more expensive to close every week.",
					output.FormatPercent(s), over, len(open), th.AgeDays),
			}, nil
		},
	}
}

func agingCritical(th Thresholds) Pattern {
	return Pattern{
		ID:        "aging.critical",
		Category:  CategoryAging,
		MinSignal: 0.1,
		Eval: func(c *Context) (*Finding, error) {
			pred := func(i incident.Incident) bool {
				return incident.IsCritical(i.Priority) && i.AgeDays(c.Now) > th.CriticalAgeDays
			}
			n := c.countOpen(pred)
			if n == 0 {
				return nil, nil
			}
			return &Finding{
				Title:  "Aged critical incidents",
				Signal: logNormalize(float64(n), 5),
				Body: fmt.Sprintf("%d high-priority incidents are older than %d days. "+
					"Force an unblock-or-close decision on each of them.", n, th.CriticalAgeDays),
				Filter: incident.Filter{Priority: c.labelsWhere(incident.DimPriority, pred)},
			}, nil
		},
	}
}

func agingStale(th Thresholds) Pattern {
	return Pattern{
		ID:        "aging.stale",
		Category:  CategoryAging,
		MinSignal: th.StaleShare,
		Eval: func(c *Context) (*Finding, error) {
			known, stale := 0, 0
			for _, inc := range c.Open() {
				d := inc.StaleDays(c.Now)
				if d < 0 {
					continue
				}
				known++
				if d > th.StaleDays {
					stale++
				}
			}
			if stale == 0 {
				return nil, nil
			}
			s := share(stale, known)
			return &Finding{
				Title:  "Backlog without recent movement",
				Signal: s,
				Body: fmt.Sprintf("%s of open incidents (%d) have had no update in more than %d days.",
					output.FormatPercent(s), stale, th.StaleDays),
			}, nil
		},
	}
}
