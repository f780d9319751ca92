package pack

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
)

// InsightMetric is one headline figure.
type InsightMetric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Frame is the data a metric extractor reads.
type Frame struct {
	Dataset    incident.Dataset
	Open       incident.Dataset
	KPIs       kpi.Snapshot
	Thresholds insights.Thresholds
	Themes     []insights.Theme
	Now        time.Time

	flowDone          bool
	created, closed   int
	agesDone          bool
	ages, resolutions []float64
}

// MetricFunc extracts one headline metric.
type MetricFunc func(f *Frame) InsightMetric

const flowMetricDays = 14

func (f *Frame) flow14() (created, closed int) {
	if !f.flowDone {
		for _, d := range kpi.DailyFlow(f.Dataset, f.Now, flowMetricDays) {
			f.created += d.Created
			f.closed += d.Closed
		}
		f.flowDone = true
	}
	return f.created, f.closed
}

func (f *Frame) samples() (ages, resolutions []float64) {
	if !f.agesDone {
		for _, inc := range f.Open {
			if a := inc.AgeDays(f.Now); a >= 0 {
				f.ages = append(f.ages, float64(a))
			}
		}
		for _, inc := range f.Dataset {
			if d, ok := inc.ResolutionDays(); ok {
				f.resolutions = append(f.resolutions, d)
			}
		}
		sort.Float64s(f.ages)
		sort.Float64s(f.resolutions)
		f.agesDone = true
	}
	return f.ages, f.resolutions
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) (float64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, true
}

func count(label string, n int) InsightMetric {
	return InsightMetric{Label: label, Value: strconv.Itoa(n)}
}

func shareOf(n, total int) string {
	if total == 0 {
		return output.Placeholder
	}
	return output.FormatPercent(float64(n) / float64(total))
}

func created14(f *Frame) InsightMetric {
	c, _ := f.flow14()
	return count("Created (last 14d)", c)
}

func closed14(f *Frame) InsightMetric {
	_, c := f.flow14()
	return count("Closed (last 14d)", c)
}

func closeEntryRatio(f *Frame) InsightMetric {
	created, closed := f.flow14()
	return InsightMetric{Label: "Close/entry ratio", Value: output.FormatRatio(float64(closed), float64(created))}
}

func agePercentile(label string, p float64) MetricFunc {
	return func(f *Frame) InsightMetric {
		ages, _ := f.samples()
		v, ok := percentile(ages, p)
		return InsightMetric{Label: label, Value: output.FormatDays(v, ok)}
	}
}

func agedShare(f *Frame) InsightMetric {
	over := f.Open.Count(func(i incident.Incident) bool { return i.AgeDays(f.Now) > f.Thresholds.AgeDays })
	return InsightMetric{Label: fmt.Sprintf(">%d days", f.Thresholds.AgeDays), Value: shareOf(over, len(f.Open))}
}

func resolutionPercentile(label string, p float64) MetricFunc {
	return func(f *Frame) InsightMetric {
		_, res := f.samples()
		v, ok := percentile(res, p)
		return InsightMetric{Label: label, Value: output.FormatDays(v, ok)}
	}
}

func openTotal(f *Frame) InsightMetric {
	return count("Open total", len(f.Open))
}

func dominant(label string, dim incident.Dimension) MetricFunc {
	return func(f *Frame) InsightMetric {
		ranked := incident.Ranked(f.Open.Counts(dim))
		if len(ranked) == 0 {
			return InsightMetric{Label: label, Value: output.Placeholder}
		}
		return InsightMetric{Label: label, Value: ranked[0].Label}
	}
}

func weightedRisk(f *Frame) InsightMetric {
	if len(f.Open) == 0 {
		return InsightMetric{Label: "Weighted risk", Value: output.Placeholder}
	}
	return InsightMetric{Label: "Weighted risk", Value: fmt.Sprintf("%.1f", insights.WeightedPriorityRisk(f.Open))}
}

func topStatusShare(f *Frame) InsightMetric {
	ranked := incident.Ranked(f.Open.Counts(incident.DimStatus))
	if len(ranked) == 0 {
		return InsightMetric{Label: "Top concentration", Value: output.Placeholder}
	}
	return InsightMetric{Label: "Top concentration", Value: shareOf(ranked[0].Count, len(f.Open))}
}

func openBacklog(f *Frame) InsightMetric {
	return count("Open backlog", f.KPIs.Open)
}

func meanResolution(f *Frame) InsightMetric {
	return InsightMetric{Label: "Mean resolution", Value: output.FormatDays(f.KPIs.MeanResolution.Value, f.KPIs.MeanResolution.OK)}
}

func operationalRisk(f *Frame) InsightMetric {
	h := insights.AssessHealth(f.Open, f.Now, f.Thresholds)
	if h.Open == 0 {
		return InsightMetric{Label: "Operational risk", Value: output.Placeholder}
	}
	return InsightMetric{Label: "Operational risk", Value: fmt.Sprintf("%.0f/100 (%s)", h.Risk, insights.RiskLabel(h.Risk))}
}

func repeatedIncidents(f *Frame) InsightMetric {
	n := 0
	for _, g := range insights.ExactDuplicates(f.Open) {
		n += len(g.Keys)
	}
	return count("Repeated incidents", n)
}

func duplicateGroups(f *Frame) InsightMetric {
	return count("Duplicate groups", len(insights.ExactDuplicates(f.Open)))
}

func similarClusters(f *Frame) InsightMetric {
	th := f.Thresholds
	clusters := insights.SimilarClusters(f.Open, insights.SimilarityOptions{
		Threshold:       th.SimilarityThreshold,
		MinSharedTokens: th.MinSharedTokens,
		MaxIssues:       th.MaxSimilarIssues,
	})
	return count("Similar clusters", len(clusters))
}

func topTheme(f *Frame) InsightMetric {
	top, ok := insights.TopTheme(f.Open, f.Themes)
	if !ok {
		return InsightMetric{Label: "Top theme", Value: output.Placeholder}
	}
	return InsightMetric{Label: "Top theme", Value: top.Label}
}

func topThemeShare(f *Frame) InsightMetric {
	top, ok := insights.TopTheme(f.Open, f.Themes)
	if !ok {
		return InsightMetric{Label: "Theme share", Value: output.Placeholder}
	}
	return InsightMetric{Label: "Theme share", Value: shareOf(top.Count, len(f.Open))}
}

func assignees(f *Frame) InsightMetric {
	counts := f.Open.Counts(incident.DimAssignee)
	delete(counts, incident.Unassigned)
	return count("Assignees", len(counts))
}

func topLoad(f *Frame) InsightMetric {
	counts := f.Open.Counts(incident.DimAssignee)
	delete(counts, incident.Unassigned)
	ranked := incident.Ranked(counts)
	if len(ranked) == 0 {
		return InsightMetric{Label: "Top load", Value: output.Placeholder}
	}
	return InsightMetric{Label: "Top load", Value: fmt.Sprintf("%s (%d)", ranked[0].Label, ranked[0].Count)}
}

func unassignedOpen(f *Frame) InsightMetric {
	return count("Unassigned", f.Open.Count(func(i incident.Incident) bool {
		return incident.AssigneeLabel(i) == incident.Unassigned
	}))
}

// neutralMetric pads packs whose chart yields fewer than three metrics.
var neutralMetric = InsightMetric{Label: output.Placeholder, Value: output.Placeholder}

// fitMetrics returns exactly n metrics, padding with neutral values.
func fitMetrics(ms []InsightMetric, n int) []InsightMetric {
	out := make([]InsightMetric, 0, n)
	for _, m := range ms {
		if len(out) == n {
			break
		}
		out = append(out, m)
	}
	for len(out) < n {
		out = append(out, neutralMetric)
	}
	return out
}
