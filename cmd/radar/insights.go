package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/pack"
)

var (
	insightsAll      bool
	insightsNoRecord bool
)

var insightsCmd = &cobra.Command{
	Use:     "insights [chart...]",
	Aliases: []string{"pack"},
	Short:   "Build insight packs for charts",
	Long: `Evaluate the insight catalog for one or more charts and print the ranked
cards, headline metrics and executive tip. Unless --no-record is set each run
starts a learning session and records its cards as shown for the scope, so
repeated runs fade ignored insights.

Examples:
  radar insights --data issues.json                 # overview chart
  radar insights timeseries age_buckets --data issues.json
  radar insights --all --scope ES/jira-1 --data issues.json`,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsAll, "all", false, "Build a pack for every chart")
	insightsCmd.Flags().BoolVar(&insightsNoRecord, "no-record", false, "Do not record cards as shown")
	rootCmd.AddCommand(insightsCmd)
}

// PacksResponseCLI is the insights command output
type PacksResponseCLI struct {
	Scope string                  `json:"scope"`
	Packs []pack.TrendInsightPack `json:"packs"`
}

func runInsights(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.Load()
	if err != nil {
		return err
	}
	builder, err := a.Builder(true)
	if err != nil {
		return err
	}

	charts := args
	switch {
	case insightsAll:
		charts = builder.Catalog().IDs()
	case len(charts) == 0:
		charts = []string{pack.ChartOverview}
	}
	for _, chart := range charts {
		if _, ok := builder.Catalog().Get(chart); !ok {
			return radarerrors.New(radarerrors.ChartUnknown,
				fmt.Sprintf("unknown chart %q (available: %s)", chart, strings.Join(builder.Catalog().IDs(), ", ")), nil).
				WithDetails(map[string]string{"chart": chart})
		}
	}

	ctx, cancel := newContext()
	defer cancel()

	resp := &PacksResponseCLI{Scope: a.ScopeKey()}
	record := !insightsNoRecord
	if record {
		store, err := a.Store()
		if err != nil {
			return err
		}
		if err := store.BeginSession(ctx, resp.Scope, a.now); err != nil {
			a.logger.Warn("Failed to start learning session", "scope", resp.Scope, "error", err.Error())
		}
	}

	for _, chart := range charts {
		p := builder.Build(ctx, chart, w.Data, w.Open, w.KPIs, resp.Scope)
		for _, f := range p.Failures {
			a.logger.Warn("Insight pattern skipped", "chart", chart, "pattern", f.PatternID, "error", f.Message)
		}
		resp.Packs = append(resp.Packs, p)
	}
	if record {
		if err := builder.MarkShown(ctx, resp.Packs...); err != nil {
			a.logger.Warn("Failed to record shown insights", "scope", resp.Scope, "error", err.Error())
		}
	}
	return a.Print(cmd, resp)
}
