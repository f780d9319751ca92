package pack

import "github.com/felixdelbarrio/bug-resolution-radar/internal/insights"

// FallbackTip is the executive tip when no card was emitted.
const FallbackTip = "No significant signal in this view: keep monitoring intake and closures."

var categoryTips = map[insights.Category]string{
	insights.CategoryFlow:       "Executive lever: align the weekly closing commitment with real intake to stop structural growth.",
	insights.CategoryResolution: "The slow tail of resolution is the direct improvement target: review what keeps those cases open.",
	insights.CategoryAging:      "Control rule: the absolute number of cases older than 30 days must drop every week.",
	insights.CategoryStatus:     "Measure SLA per status and review the deviation daily until the queue drains.",
	insights.CategoryPriority:   "Priority must order decisions, not absorb all demand as urgent.",
	insights.CategoryDuplicates: "Consolidate repeated incidents under one parent and fix the shared root cause once.",
	insights.CategoryTopics:     "Give the dominant topic a single owner and track its root cause to closure.",
	insights.CategoryPeople:     "Rebalance assignments so no single person becomes the bottleneck.",
	insights.CategoryOps:        "Run a short daily review of blocked and critical work until the risk score drops.",
}

// ExecutiveTip synthesizes one sentence from the top card's category.
func ExecutiveTip(cards []insights.Card) string {
	if len(cards) == 0 {
		return FallbackTip
	}
	if tip, ok := categoryTips[cards[0].Category]; ok {
		return tip
	}
	return FallbackTip
}
