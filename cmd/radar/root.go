package main

import (
	"github.com/spf13/cobra"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/version"
)

var (
	rootFlag     string
	dataFlag     string
	formatFlag   string
	scopeFlag    string
	nowFlag      string
	lookbackFlag int
	verbosity    int
	quietFlag    bool

	statusFilter   []string
	priorityFilter []string
	assigneeFilter []string
)

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "radar - adaptive insights for bug backlogs",
	Long: `radar reads an ingested issue export, computes backlog KPIs and ranks
actionable insights per chart. Insights that are shown repeatedly without
being acted on fade; insights unseen for a while come back with a boost.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("radar version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlag, "root", "", "Workspace holding .radar/ (default: current directory)")
	pf.StringVar(&dataFlag, "data", "", "Issue export (.json/.yaml, optionally .gz/.zst); overrides dataset.path")
	pf.StringVar(&formatFlag, "format", "human", "Output format (human, json, yaml, toml)")
	pf.StringVar(&scopeFlag, "scope", "", "Learning scope as country/source, e.g. ES/jira-1 (default: global)")
	pf.StringVar(&nowFlag, "now", "", "Reference time (RFC3339 or YYYY-MM-DD) instead of the wall clock")
	pf.IntVar(&lookbackFlag, "months", -1, "Analysis lookback in months (0: everything, default: config)")
	pf.StringSliceVar(&statusFilter, "status", nil, "Restrict to these statuses")
	pf.StringSliceVar(&priorityFilter, "priority", nil, "Restrict to these priorities")
	pf.StringSliceVar(&assigneeFilter, "assignee", nil, "Restrict to these assignees")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Silence logs")
}
