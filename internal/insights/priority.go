package insights

import (
	"fmt"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

func isCritical(i incident.Incident) bool {
	return incident.IsCritical(i.Priority)
}

func priorityCriticalUnassigned(th Thresholds) Pattern {
	return Pattern{
		ID:        "priority.critical_unassigned",
		Category:  CategoryPriority,
		MinSignal: 0.1,
		Eval: func(c *Context) (*Finding, error) {
			pred := func(i incident.Incident) bool {
				return isCritical(i) && incident.AssigneeLabel(i) == incident.Unassigned
			}
			n := c.countOpen(pred)
			if n == 0 {
				return nil, nil
			}
			return &Finding{
				Title:  "Critical incidents without owner",
				Signal: logNormalize(float64(n), 3),
				Body: fmt.Sprintf("%d high-priority incidents have no assignee. "+
					"Assigning ownership is the highest-return decision available today.", n),
				Filter: incident.Filter{
					Priority: c.labelsWhere(incident.DimPriority, pred),
					Assignee: []string{incident.Unassigned},
				},
			}, nil
		},
	}
}

func priorityCriticalTriage(th Thresholds) Pattern {
	return Pattern{
		ID:        "priority.critical_triage",
		Category:  CategoryPriority,
		MinSignal: 0.1,
		Eval: func(c *Context) (*Finding, error) {
			pred := func(i incident.Incident) bool {
				return isCritical(i) && status.IsTriage(i.Status)
			}
			n := c.countOpen(pred)
			if n == 0 {
				return nil, nil
			}
			return &Finding{
				Title:  "Critical incidents not started",
				Signal: logNormalize(float64(n), 3),
				Body: fmt.Sprintf("%d high-priority incidents are still in triage. "+
					"An owner and a first diagnosis today reduce customer impact.", n),
				Filter: incident.Filter{
					Status:   c.labelsWhere(incident.DimStatus, pred),
					Priority: c.labelsWhere(incident.DimPriority, pred),
				},
			}, nil
		},
	}
}

func priorityInflation(th Thresholds) Pattern {
	return Pattern{
		ID:        "priority.inflation",
		Category:  CategoryPriority,
		MinSignal: th.InflationShare,
		Eval: func(c *Context) (*Finding, error) {
			n := c.countOpen(isCritical)
			if n == 0 {
				return nil, nil
			}
			open := len(c.Open())
			s := share(n, open)
			return &Finding{
				Title:  "High-priority inflation",
				Signal: s,
				Body: fmt.Sprintf("%s of the open backlog (%d of %d) is flagged High or above. "+
					"When everything is urgent, priority stops guiding the team.", output.FormatPercent(s), n, open),
				Filter: incident.Filter{Priority: c.labelsWhere(incident.DimPriority, isCritical)},
			}, nil
		},
	}
}

func priorityMissing(th Thresholds) Pattern {
	return Pattern{
		ID:        "priority.missing",
		Category:  CategoryPriority,
		MinSignal: th.MissingShare,
		Eval: func(c *Context) (*Finding, error) {
			n := c.countOpen(func(i incident.Incident) bool {
				return incident.PriorityLabel(i) == incident.NoPriority
			})
			if n == 0 {
				return nil, nil
			}
			s := share(n, len(c.Open()))
			return &Finding{
				Title:  "Backlog without clear priority",
				Signal: s,
				Body: fmt.Sprintf("%s of open incidents (%d) have no priority. "+
					"Without it, capacity cannot be allocated by impact.", output.FormatPercent(s), n),
				Filter: incident.Filter{Priority: []string{incident.NoPriority}},
			}, nil
		},
	}
}
