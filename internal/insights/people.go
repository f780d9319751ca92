package insights

import (
	"fmt"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

func assigned(i incident.Incident) bool {
	return incident.AssigneeLabel(i) != incident.Unassigned
}

func peopleActiveLoad(th Thresholds) Pattern {
	return Pattern{
		ID:        "people.active_load",
		Category:  CategoryPeople,
		MinSignal: th.OwnerActiveShare,
		Eval: func(c *Context) (*Finding, error) {
			active := c.Open().Where(func(i incident.Incident) bool { return status.IsActive(i.Status) })
			ranked := incident.Ranked(active.Where(assigned).Counts(incident.DimAssignee))
			if len(ranked) == 0 || ranked[0].Count < th.OwnerActiveMin {
				return nil, nil
			}
			top := ranked[0]
			s := share(top.Count, len(active))
			return &Finding{
				Title:  "Active work overload",
				Signal: s,
				Body: fmt.Sprintf("%s holds %s of the work in progress (%d of %d). "+
					"Rebalancing reduces context switching and single-person risk.",
					top.Label, output.FormatPercent(s), top.Count, len(active)),
				Filter: incident.Filter{Assignee: []string{top.Label}},
			}, nil
		},
	}
}

func peopleAgedQueue(th Thresholds) Pattern {
	return Pattern{
		ID:        "people.aged_queue",
		Category:  CategoryPeople,
		MinSignal: th.OwnerAgedShare,
		Eval: func(c *Context) (*Finding, error) {
			aged := c.Open().Where(func(i incident.Incident) bool { return i.AgeDays(c.Now) > th.AgeDays })
			ranked := incident.Ranked(aged.Where(assigned).Counts(incident.DimAssignee))
			if len(ranked) == 0 || ranked[0].Count < th.OwnerAgedMin {
				return nil, nil
			}
			top := ranked[0]
			s := share(top.Count, len(aged))
			return &Finding{
				Title:  "Ownership of aged queue",
				Signal: s,
				Body: fmt.Sprintf("%s owns %s of the incidents older than %d days (%d of %d).",
					top.Label, output.FormatPercent(s), th.AgeDays, top.Count, len(aged)),
				Filter: incident.Filter{Assignee: []string{top.Label}},
			}, nil
		},
	}
}
