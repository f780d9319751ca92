package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/pack"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/report"
)

var (
	reportOut      string
	reportNoRecord bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export KPIs, every insight pack and the brief",
	Long: `Build the complete analysis for the scope and write it as JSON, YAML or
TOML. The format follows the --out extension; without --out the report is
printed using --format.

Examples:
  radar report --data issues.json --out radar-report.yaml
  radar report --data issues.json --scope MX/jira-2 --format toml`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write the report to this file (.json, .yaml, .toml)")
	reportCmd.Flags().BoolVar(&reportNoRecord, "no-record", false, "Do not record shown cards or the brief snapshot")
	rootCmd.AddCommand(reportCmd)
}

// MessageResponseCLI is a plain confirmation line
type MessageResponseCLI struct {
	Message string `json:"message"`
}

func runReport(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := newContext()
	defer cancel()

	rep := &report.Report{
		Scope:       a.ScopeKey(),
		GeneratedAt: a.now,
		KPIs:        &w.KPIs,
	}
	var overview []insights.Card
	for _, chart := range builder.Catalog().IDs() {
		p := builder.Build(ctx, chart, w.Data, w.Open, w.KPIs, rep.Scope)
		if chart == pack.ChartOverview {
			overview = p.Cards
		}
		rep.Packs = append(rep.Packs, p)
	}
	if !reportNoRecord {
		if err := builder.MarkShown(ctx, rep.Packs...); err != nil {
			a.logger.Warn("Failed to record shown insights", "scope", rep.Scope, "error", err.Error())
		}
	}
	if rep.Brief, err = buildBrief(ctx, a, w, overview, nil, !reportNoRecord); err != nil {
		return err
	}

	if reportOut == "" {
		return a.Print(cmd, rep)
	}
	if err := report.WriteFile(reportOut, rep, ""); err != nil {
		return err
	}
	a.logger.Info("Wrote report", "path", reportOut, "packs", len(rep.Packs))
	return a.Print(cmd, &MessageResponseCLI{
		Message: fmt.Sprintf("Report for %s written to %s (%d packs)", rep.Scope, reportOut, len(rep.Packs)),
	})
}
