package insights

import (
	"fmt"
	"math"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

func statusBottleneck(th Thresholds) Pattern {
	return Pattern{
		ID:        "status.bottleneck",
		Category:  CategoryStatus,
		MinSignal: th.BottleneckShare,
		Eval: func(c *Context) (*Finding, error) {
			open := c.Open()
			ranked := incident.Ranked(open.Counts(incident.DimStatus))
			if len(ranked) == 0 {
				return nil, nil
			}
			top := ranked[0]
			s := share(top.Count, len(open))
			return &Finding{
				Title:  "Likely bottleneck",
				Signal: s,
				Body: fmt.Sprintf("%s of the open backlog is in %s (%d of %d).",
					output.FormatPercent(s), top.Label, top.Count, len(open)),
				Filter: incident.Filter{Status: []string{top.Label}},
			}, nil
		},
	}
}

func statusTriage(th Thresholds) Pattern {
	return Pattern{
		ID:        "status.triage",
		Category:  CategoryStatus,
		MinSignal: th.TriageShare,
		Eval: func(c *Context) (*Finding, error) {
			pred := func(i incident.Incident) bool { return status.IsTriage(i.Status) }
			n := c.countOpen(pred)
			if n == 0 {
				return nil, nil
			}
			s := share(n, len(c.Open()))
			return &Finding{
				Title:  "Triage debt",
				Signal: s,
				Body: fmt.Sprintf("%s of open incidents (%d) are still waiting for a first diagnosis. "+
					"A daily triage routine usually drains this pocket quickly.", output.FormatPercent(s), n),
				Filter: incident.Filter{Status: c.labelsWhere(incident.DimStatus, pred)},
			}, nil
		},
	}
}

func statusBlocked(th Thresholds) Pattern {
	return Pattern{
		ID:        "status.blocked",
		Category:  CategoryStatus,
		MinSignal: 0.05,
		Eval: func(c *Context) (*Finding, error) {
			pred := func(i incident.Incident) bool { return status.IsBlocked(i.Status) }
			n := c.countOpen(pred)
			if n == 0 {
				return nil, nil
			}
			s := share(n, len(c.Open()))
			return &Finding{
				Title:  "Blocked work",
				Signal: math.Max(s, logNormalize(float64(n), 10)),
				Body: fmt.Sprintf("%d incidents are blocked (%s of the open backlog). "+
					"A 24h unblock loop frees capacity without growing the team.", n, output.FormatPercent(s)),
				Filter: incident.Filter{Status: c.labelsWhere(incident.DimStatus, pred)},
			}, nil
		},
	}
}
