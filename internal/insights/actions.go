package insights

import (
	"fmt"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// Action is a recommended next step with the drill-down that scopes it.
type Action struct {
	Title          string          `json:"title"`
	Body           string          `json:"body"`
	ExpectedImpact string          `json:"expectedImpact"`
	Filter         incident.Filter `json:"filter"`
}

// Trigger levels of the next-best-action list.
const (
	ActionBlockedShare   = 0.08
	ActionAgedShare      = 0.25
	ActionDuplicateShare = 0.10
)

// FollowUpAction is returned when nothing stands out and there are no cards.
var FollowUpAction = Action{
	Title:          "Operational follow-up",
	Body:           "No dominant deviation under the current filters.",
	ExpectedImpact: "Expected impact: keep flow under control with periodic follow-up.",
}

// NextBestActions ranks the actions suggested by snap. Filters are resolved
// against open. Without any trigger the top card becomes the action, and
// without cards FollowUpAction is returned. The list is never empty.
func NextBestActions(snap Snapshot, cards []Card, open incident.Dataset) []Action {
	var actions []Action
	add := func(a Action) {
		a.Filter = a.Filter.ResolveAndRelax(open)
		actions = append(actions, a)
	}

	if n := int(snap[SnapCriticalUnassigned]); n > 0 {
		add(Action{
			Title:          "Assign owners to critical work",
			Body:           fmt.Sprintf("%d High or higher incidents have no owner under the current filters.", n),
			ExpectedImpact: fmt.Sprintf("Expected impact: clear ownership over %d critical incidents.", n),
			Filter: incident.Filter{
				Priority: incident.CriticalPriorities,
				Assignee: []string{incident.Unassigned},
			},
		})
	}
	if n := int(snap[SnapBlockedCount]); n > 0 && snap[SnapBlockedPct] >= ActionBlockedShare {
		add(Action{
			Title:          "Review active blocks",
			Body:           fmt.Sprintf("%d incidents are blocked under the current filters.", n),
			ExpectedImpact: fmt.Sprintf("Expected impact: an unblock plan for %d active incidents.", n),
			Filter:         incident.Filter{Status: status.BlockedStatuses},
		})
	}
	if net := int(snap[SnapNet14]); net > 0 {
		a := Action{
			Title:          "Rebalance intake and closure",
			Body:           fmt.Sprintf("Over the last %d days intake exceeded closures by +%d incidents.", flowDaysOf(snap), net),
			ExpectedImpact: "Expected impact: a closure target that absorbs the extra intake.",
		}
		if focus := focusStatus(open); focus != "" {
			a.Filter.Status = []string{focus}
		}
		add(a)
	}
	if aged := snap[SnapAged30Pct]; aged >= ActionAgedShare {
		add(Action{
			Title:          "Work the aged queue",
			Body:           fmt.Sprintf("%s of the open backlog is older than 30 days.", output.FormatPercent(aged)),
			ExpectedImpact: "Expected impact: lower ageing risk by working this queue on its own.",
		})
	}
	if dup := snap[SnapDuplicateShare]; dup >= ActionDuplicateShare {
		add(Action{
			Title:          "Consolidate duplicates",
			Body:           fmt.Sprintf("Duplicates make up %s of the open backlog.", output.FormatPercent(dup)),
			ExpectedImpact: "Expected impact: less operational load once repeated incidents are merged.",
		})
	}

	if len(actions) == 0 && len(cards) > 0 {
		top := cards[0]
		add(Action{
			Title:          top.Title,
			Body:           top.Body,
			ExpectedImpact: "Expected impact: hold the current trend and pay down specific debt.",
			Filter:         top.Filter,
		})
	}
	if len(actions) == 0 {
		actions = append(actions, FollowUpAction)
	}
	return actions
}

// focusStatus is the most common active status of open, or the most common
// labelled one when none is active.
func focusStatus(open incident.Dataset) string {
	ranked := incident.Ranked(open.Counts(incident.DimStatus))
	for _, lc := range ranked {
		if status.IsActive(lc.Label) {
			return lc.Label
		}
	}
	for _, lc := range ranked {
		if lc.Label != incident.NoStatus {
			return lc.Label
		}
	}
	return ""
}
