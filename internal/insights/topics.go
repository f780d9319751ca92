package insights

import (
	"fmt"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
)

func topicsConcentration(th Thresholds, themes []Theme) Pattern {
	return Pattern{
		ID:        "topics.concentration",
		Category:  CategoryTopics,
		MinSignal: th.TopicShare,
		Eval: func(c *Context) (*Finding, error) {
			open := c.Open()
			top, ok := TopTheme(open, themes)
			if !ok || top.Count < th.TopicMin {
				return nil, nil
			}
			s := share(top.Count, len(open))

			sub := open.Where(func(i incident.Incident) bool {
				return ClassifyTheme(i.Summary, themes) == top.Label
			})
			body := fmt.Sprintf("%s concentrates %s of the open backlog (%d incidents).",
				top.Label, output.FormatPercent(s), top.Count)
			if ranked := incident.Ranked(sub.Counts(incident.DimStatus)); len(ranked) > 0 {
				body += fmt.Sprintf(" Dominant status: %s (%d).", ranked[0].Label, ranked[0].Count)
			}
			return &Finding{
				Title:  "Topic concentration",
				Signal: s,
				Body:   body,
			}, nil
		},
	}
}
