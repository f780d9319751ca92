package insights

import (
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// flowLookback is how much daily history flow patterns look at.
const flowLookback = 90

// Input is everything one evaluation sees. Open may be nil, in which case
// it is derived from Dataset with Classifier.
type Input struct {
	Dataset    incident.Dataset
	Open       incident.Dataset
	KPIs       kpi.Snapshot
	Classifier status.Classifier
}

// Context is the per-evaluation view handed to patterns. Derived series
// are computed once and shared.
type Context struct {
	In  Input
	Now time.Time

	open     incident.Dataset
	flow     []kpi.FlowDay
	flowDone bool
}

func newContext(in Input) *Context {
	open := in.Open
	if open == nil {
		open = in.Dataset.Open(in.Classifier)
	}
	return &Context{In: in, Now: in.KPIs.Window.Now, open: open}
}

// Open is the canonical-open subset.
func (c *Context) Open() incident.Dataset {
	return c.open
}

// Flow is the daily created/closed series over the last 90 days.
func (c *Context) Flow() []kpi.FlowDay {
	if !c.flowDone {
		c.flow = kpi.DailyFlow(c.In.Dataset, c.Now, flowLookback)
		c.flowDone = true
	}
	return c.flow
}

// Stage classifies a raw status with the evaluation's classifier.
func (c *Context) Stage(raw string) status.Stage {
	return c.In.Classifier.Stage(raw)
}

// countOpen counts open incidents matching pred.
func (c *Context) countOpen(pred func(incident.Incident) bool) int {
	return c.open.Count(pred)
}

// labelsWhere collects the distinct labels of dim among open incidents
// matching pred, in sorted order.
func (c *Context) labelsWhere(dim incident.Dimension, pred func(incident.Incident) bool) []string {
	return c.open.Where(pred).Domain()[dim]
}

// tail sums the last n days of a flow series.
func tail(days []kpi.FlowDay, n int) (created, closed int) {
	start := len(days) - n
	if start < 0 {
		start = 0
	}
	for _, d := range days[start:] {
		created += d.Created
		closed += d.Closed
	}
	return created, closed
}
