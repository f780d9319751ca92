package pack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
)

// Chart IDs in the default catalog.
const (
	ChartTimeseries      = "timeseries"
	ChartAgeBuckets      = "age_buckets"
	ChartResolutionHist  = "resolution_hist"
	ChartOpenPriorityPie = "open_priority_pie"
	ChartOpenStatusBar   = "open_status_bar"
	ChartOverview        = "overview"
	ChartDuplicates      = "duplicates"
	ChartTopics          = "topics"
	ChartPeople          = "people"
)

// Chart declares which patterns a visualization evaluates and which
// headline metrics it shows. A nil Patterns runs every registered pattern.
type Chart struct {
	ID       string
	Title    string
	Patterns []string
	Metrics  []MetricFunc
}

// Catalog maps chart IDs to their definitions.
type Catalog struct {
	charts map[string]Chart
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{charts: map[string]Chart{}}
}

// Register adds a chart. IDs are unique and trimmed.
func (c *Catalog) Register(ch Chart) error {
	ch.ID = strings.TrimSpace(ch.ID)
	if ch.ID == "" {
		return fmt.Errorf("chart has no id")
	}
	if _, exists := c.charts[ch.ID]; exists {
		return fmt.Errorf("chart %q already registered", ch.ID)
	}
	c.charts[ch.ID] = ch
	return nil
}

// MustRegister is Register that panics on error.
func (c *Catalog) MustRegister(ch Chart) {
	if err := c.Register(ch); err != nil {
		panic(err)
	}
}

// Get looks up a chart by ID.
func (c *Catalog) Get(id string) (Chart, bool) {
	ch, ok := c.charts[strings.TrimSpace(id)]
	return ch, ok
}

// IDs returns the registered chart IDs in ascending order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.charts))
	for id := range c.charts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultCatalog wires the built-in charts to the default pattern IDs.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, ch := range []Chart{
		{
			ID:       ChartTimeseries,
			Title:    "Created vs closed",
			Patterns: []string{"flow.pressure", "flow.runway", "flow.acceleration", "status.triage", "people.active_load"},
			Metrics:  []MetricFunc{created14, closed14, closeEntryRatio},
		},
		{
			ID:       ChartAgeBuckets,
			Title:    "Open backlog age",
			Patterns: []string{"aging.backlog", "aging.critical", "aging.stale", "people.aged_queue"},
			Metrics:  []MetricFunc{agePercentile("Typical age", 0.5), agePercentile("Most stuck", 0.9), agedShare},
		},
		{
			ID:       ChartResolutionHist,
			Title:    "Resolution time",
			Patterns: []string{"resolution.slow", "aging.stale"},
			Metrics: []MetricFunc{
				resolutionPercentile("Typical resolution", 0.5),
				resolutionPercentile("Slow resolution", 0.9),
				resolutionPercentile("Very slow cases", 0.95),
			},
		},
		{
			ID:       ChartOpenPriorityPie,
			Title:    "Open by priority",
			Patterns: []string{"priority.critical_unassigned", "priority.critical_triage", "priority.inflation", "priority.missing", "aging.critical"},
			Metrics:  []MetricFunc{openTotal, dominant("Dominant priority", incident.DimPriority), weightedRisk},
		},
		{
			ID:       ChartOpenStatusBar,
			Title:    "Open by status",
			Patterns: []string{"status.bottleneck", "status.triage", "status.blocked"},
			Metrics:  []MetricFunc{openTotal, dominant("Dominant status", incident.DimStatus), topStatusShare},
		},
		{
			ID:      ChartOverview,
			Title:   "Overview",
			Metrics: []MetricFunc{openBacklog, meanResolution, operationalRisk},
		},
		{
			ID:       ChartDuplicates,
			Title:    "Duplicates",
			Patterns: []string{"duplicates.exact", "duplicates.similar"},
			Metrics:  []MetricFunc{repeatedIncidents, duplicateGroups, similarClusters},
		},
		{
			ID:       ChartTopics,
			Title:    "Topics",
			Patterns: []string{"topics.concentration"},
			Metrics:  []MetricFunc{openTotal, topTheme, topThemeShare},
		},
		{
			ID:       ChartPeople,
			Title:    "People",
			Patterns: []string{"people.active_load", "people.aged_queue", "priority.critical_unassigned"},
			Metrics:  []MetricFunc{assignees, topLoad, unassignedOpen},
		},
	} {
		c.MustRegister(ch)
	}
	return c
}
