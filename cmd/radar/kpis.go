package main

import (
	"github.com/spf13/cobra"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
)

var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Show backlog KPIs",
	Long: `Aggregate the selected incidents into backlog KPIs: open/closed split,
window flow, age buckets, mean resolution time and open breakdowns.

Examples:
  radar kpis --data issues.json
  radar kpis --data issues.json --scope ES/jira-1 --months 6
  radar kpis --data issues.json --priority critical --format json`,
	RunE: runKPIs,
}

func init() {
	rootCmd.AddCommand(kpisCmd)
}

// KPIResponseCLI is the kpis command output
type KPIResponseCLI struct {
	Scope  string          `json:"scope"`
	Months int             `json:"months"`
	Filter incident.Filter `json:"filter"`
	KPIs   kpi.Snapshot    `json:"kpis"`
}

func runKPIs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.Load()
	if err != nil {
		return err
	}

	return a.Print(cmd, &KPIResponseCLI{
		Scope:  a.ScopeKey(),
		Months: w.Months,
		Filter: w.Filter,
		KPIs:   w.KPIs,
	})
}
