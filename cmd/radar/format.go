package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/pack"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/report"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
	FormatTOML  OutputFormat = "toml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON, FormatYAML, FormatTOML:
		data, err := report.Marshal(resp, report.Format(format))
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\n"), nil
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *KPIResponseCLI:
		return formatKPIsHuman(v), nil
	case *PacksResponseCLI:
		return formatPacksHuman(v), nil
	case *BriefResponseCLI:
		return formatBriefHuman(v), nil
	case *ChartsResponseCLI:
		return formatChartsHuman(v), nil
	case *LearningResponseCLI:
		return formatLearningHuman(v), nil
	case *EventsResponseCLI:
		return formatEventsHuman(v), nil
	case *ScopesResponseCLI:
		if len(v.Scopes) == 0 {
			return "No learning state recorded.", nil
		}
		return strings.Join(v.Scopes, "\n"), nil
	case *MessageResponseCLI:
		return v.Message, nil
	default:
		// For unknown types, fall back to JSON
		return FormatResponse(resp, FormatJSON)
	}
}

func header(b *strings.Builder, title string) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
}

func formatKPIsHuman(resp *KPIResponseCLI) string {
	var b strings.Builder
	k := resp.KPIs
	header(&b, fmt.Sprintf("Backlog KPIs - %s (last %d days)", resp.Scope, k.Window.Days))

	b.WriteString(fmt.Sprintf("  Total: %d   Open: %d   Closed: %d\n", k.Total, k.Open, k.Closed))
	b.WriteString(fmt.Sprintf("  Created in window: %d   Closed in window: %d   Net: %+d\n",
		k.CreatedInWindow, k.ClosedInWindow, k.NetDelta))
	b.WriteString(fmt.Sprintf("  Mean resolution: %s (%d samples)\n",
		output.FormatDays(k.MeanResolution.Value, k.MeanResolution.OK), k.ResolvedSamples))
	b.WriteString(fmt.Sprintf("  Open older than %d days: %s\n", k.OverDays, output.FormatPercent(k.OpenOverShare)))
	if !resp.Filter.IsEmpty() {
		b.WriteString(fmt.Sprintf("  Filter: %s\n", describeFilter(resp.Filter.Status, resp.Filter.Priority, resp.Filter.Assignee)))
	}
	b.WriteString("\n")

	b.WriteString("Open by age:\n")
	for _, bc := range k.AgeBuckets {
		b.WriteString(fmt.Sprintf("  %-8s %d\n", bc.Label, bc.Count))
	}
	if k.AgeUnknown > 0 {
		b.WriteString(fmt.Sprintf("  %-8s %d\n", "unknown", k.AgeUnknown))
	}
	b.WriteString("\n")

	writeCounts(&b, "Open by priority:", k.OpenByPriority)
	writeCounts(&b, "Open by status:", k.OpenByStatus)

	if rows := k.ResolutionByPriority(); len(rows) > 0 {
		b.WriteString("Mean resolution by priority:\n")
		for _, r := range rows {
			b.WriteString(fmt.Sprintf("  %-12s %s\n", r.Priority, output.FormatDays(r.Days.Value, r.Days.OK)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	b.WriteString(title + "\n")
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %-16s %d\n", k, counts[k]))
	}
	b.WriteString("\n")
}

func describeFilter(statuses, priorities, assignees []string) string {
	var parts []string
	if len(statuses) > 0 {
		parts = append(parts, "status="+strings.Join(statuses, "|"))
	}
	if len(priorities) > 0 {
		parts = append(parts, "priority="+strings.Join(priorities, "|"))
	}
	if len(assignees) > 0 {
		parts = append(parts, "assignee="+strings.Join(assignees, "|"))
	}
	return strings.Join(parts, " ")
}

func formatPacksHuman(resp *PacksResponseCLI) string {
	var b strings.Builder
	for i, p := range resp.Packs {
		if i > 0 {
			b.WriteString("\n")
		}
		header(&b, fmt.Sprintf("Insights - %s (%s)", p.ChartID, p.Scope))
		writePack(&b, p)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writePack(b *strings.Builder, p pack.TrendInsightPack) {
	for _, m := range p.Metrics {
		b.WriteString(fmt.Sprintf("  %-28s %s\n", m.Label, m.Value))
	}
	b.WriteString("\n")

	if len(p.Cards) == 0 {
		b.WriteString("  No insights for the current selection.\n\n")
	}
	for i, c := range p.Cards {
		writeCard(b, i+1, c)
	}
	if len(p.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("  ! skipped: %s\n\n", strings.Join(p.Skipped, ", ")))
	}
	b.WriteString(color.New(color.FgHiCyan).Sprint("Tip: ") + p.ExecutiveTip + "\n")
}

func writeCard(b *strings.Builder, n int, c insights.Card) {
	title := color.New(color.Bold).Sprint(c.Title)
	b.WriteString(fmt.Sprintf("  %d. %s %s\n", n, title, categoryTag(c.Category)))
	b.WriteString(fmt.Sprintf("     %s\n", c.Body))
	b.WriteString(fmt.Sprintf("     score %s (signal %s x %s)  id=%s\n",
		output.FormatFloat(c.Score), output.FormatFloat(c.Signal), output.FormatFloat(c.Multiplier), c.PatternID))
	if c.Actionable && !c.Filter.IsEmpty() {
		b.WriteString(fmt.Sprintf("     drill-down: %s\n", describeFilter(c.Filter.Status, c.Filter.Priority, c.Filter.Assignee)))
	}
	b.WriteString("\n")
}

func categoryTag(c insights.Category) string {
	return color.New(color.FgCyan).Sprintf("[%s]", c)
}

func riskColor(label string) *color.Color {
	switch label {
	case "high":
		return color.New(color.FgRed, color.Bold)
	case "medium":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgHiGreen)
	}
}

func formatBriefHuman(resp *BriefResponseCLI) string {
	var b strings.Builder
	br := resp.Brief
	header(&b, "Operational brief - "+resp.Scope)

	for _, line := range br.Lines {
		b.WriteString("  - " + line + "\n")
	}
	b.WriteString("\n")

	label := insights.RiskLabel(br.Health.Risk)
	b.WriteString(fmt.Sprintf("Risk: %s (%s/100)\n\n",
		riskColor(label).Sprint(label), output.FormatFloat(br.Health.Risk)))

	b.WriteString("Since last session:\n")
	for _, line := range br.Changes {
		b.WriteString("  - " + line + "\n")
	}

	if len(br.Actions) > 0 {
		b.WriteString("\nNext best actions:\n")
		for i, act := range br.Actions {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, color.New(color.Bold).Sprint(act.Title)))
			b.WriteString(fmt.Sprintf("     %s\n", act.Body))
			b.WriteString(fmt.Sprintf("     %s\n", act.ExpectedImpact))
			if !act.Filter.IsEmpty() {
				b.WriteString(fmt.Sprintf("     drill-down: %s\n", describeFilter(act.Filter.Status, act.Filter.Priority, act.Filter.Assignee)))
			}
		}
	}

	if br.Projection != nil {
		p := br.Projection
		b.WriteString("\nEight-week projection:\n")
		b.WriteString(fmt.Sprintf("  Weekly in/out: %s / %s (net %s)\n",
			output.FormatFloat(p.WeeklyIn), output.FormatFloat(p.WeeklyOut), output.FormatFloat(p.WeeklyNet)))
		b.WriteString(fmt.Sprintf("  Backlog in 8 weeks: %s (%+.1f)\n", output.FormatFloat(p.Backlog8w), p.Delta8w))
		if p.WeeksToZero != nil {
			b.WriteString(fmt.Sprintf("  Weeks to zero: %s\n", output.FormatFloat(*p.WeeksToZero)))
		} else {
			b.WriteString("  Weeks to zero: " + output.Placeholder + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatChartsHuman(resp *ChartsResponseCLI) string {
	var b strings.Builder
	header(&b, "Charts with insight packs")
	for _, c := range resp.Charts {
		patterns := "all patterns"
		if len(c.Patterns) > 0 {
			patterns = strings.Join(c.Patterns, ", ")
		}
		b.WriteString(fmt.Sprintf("  %-18s %s\n", c.ID, c.Title))
		b.WriteString(fmt.Sprintf("  %-18s %s\n", "", patterns))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLearningHuman(resp *LearningResponseCLI) string {
	var b strings.Builder
	rec := resp.Record
	header(&b, "Learning state - "+rec.Scope)
	b.WriteString(fmt.Sprintf("  Sessions: %d   Interactions: %d\n", rec.Sessions, rec.Interactions))
	if !rec.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("  Updated: %s\n", rec.UpdatedAt.Format("2006-01-02 15:04")))
	}
	b.WriteString("\n")

	if len(resp.Patterns) == 0 {
		b.WriteString("  No interactions recorded yet.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  %-26s %6s %8s %10s\n", "PATTERN", "SHOWN", "CLICKED", "MULTIPLIER"))
	for _, p := range resp.Patterns {
		b.WriteString(fmt.Sprintf("  %-26s %6d %8d %10s\n", p.PatternID, p.Shown, p.Clicked, output.FormatFloat(p.Multiplier)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatEventsHuman(resp *EventsResponseCLI) string {
	if len(resp.Events) == 0 {
		return "No events recorded."
	}
	var b strings.Builder
	for _, ev := range resp.Events {
		b.WriteString(fmt.Sprintf("%s  %-7s %-24s %s\n", ev.At.Format("2006-01-02 15:04:05"), ev.Kind, ev.PatternID, ev.Scope))
	}
	return strings.TrimRight(b.String(), "\n")
}

// patternRows flattens a record for display, most shown first.
func patternRows(store *learning.Store, rec *learning.Record, now time.Time) []PatternRowCLI {
	rows := make([]PatternRowCLI, 0, len(rec.Patterns))
	for id, st := range rec.Patterns {
		rows = append(rows, PatternRowCLI{
			PatternID:  id,
			Shown:      st.Shown,
			Clicked:    st.Clicked,
			Multiplier: store.Multiplier(rec, id, now),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Shown != rows[j].Shown {
			return rows[i].Shown > rows[j].Shown
		}
		return rows[i].PatternID < rows[j].PatternID
	})
	return rows
}
