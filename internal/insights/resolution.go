package insights

import (
	"fmt"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
)

func resolutionSlow(th Thresholds) Pattern {
	return Pattern{
		ID:        "resolution.slow",
		Category:  CategoryResolution,
		MinSignal: 0.5,
		Eval: func(c *Context) (*Finding, error) {
			k := c.In.KPIs
			if !k.MeanResolution.OK || k.MeanResolution.Value < th.SlowResolution {
				return nil, nil
			}
			body := fmt.Sprintf("Incidents opened and closed in the last %d days took %s on average (%d closed).",
				k.Window.Days, output.FormatDays(k.MeanResolution.Value, true), k.ResolvedSamples)

			rows := k.ResolutionByPriority()
			if len(rows) > 1 {
				slowest := rows[0]
				for _, r := range rows[1:] {
					if r.Days.Value > slowest.Days.Value {
						slowest = r
					}
				}
				body += fmt.Sprintf(" %s is the slowest priority at %s.",
					slowest.Priority, output.FormatDays(slowest.Days.Value, slowest.Days.OK))
			}
			return &Finding{
				Title:  "Slow resolution cycle",
				Signal: logNormalize(k.MeanResolution.Value, th.SlowResolution),
				Body:   body,
			}, nil
		},
	}
}
