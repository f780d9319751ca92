package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/pack"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/report"
)

var (
	briefNoRecord       bool
	briefEntryReduction float64
	briefClosureBoost   float64
	briefUnblock        float64
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Operational brief with changes since the last session",
	Long: `Summarise the open backlog in three lines, compare it with the snapshot
saved at the end of the previous session, rank the next best actions and
optionally project it eight weeks ahead under a what-if scenario.

Examples:
  radar brief --data issues.json
  radar brief --data issues.json --entry-reduction 20 --closure-boost 15
  radar brief --data issues.json --unblock 50 --no-record`,
	RunE: runBrief,
}

func init() {
	briefCmd.Flags().BoolVar(&briefNoRecord, "no-record", false, "Do not start a session or save the snapshot")
	briefCmd.Flags().Float64Var(&briefEntryReduction, "entry-reduction", 0, "What-if: cut weekly intake by this percentage (0-95)")
	briefCmd.Flags().Float64Var(&briefClosureBoost, "closure-boost", 0, "What-if: raise weekly closures by this percentage (0-300)")
	briefCmd.Flags().Float64Var(&briefUnblock, "unblock", 0, "What-if: unblock this percentage of blocked incidents (0-100)")
	rootCmd.AddCommand(briefCmd)
}

// BriefResponseCLI is the brief command output
type BriefResponseCLI struct {
	Scope string       `json:"scope"`
	Brief report.Brief `json:"brief"`
}

func runBrief(cmd *cobra.Command, args []string) error {
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

	// Overview cards only seed the action fallback; they are not recorded as shown.
	overview := builder.Build(ctx, pack.ChartOverview, w.Data, w.Open, w.KPIs, a.ScopeKey())
	brief, err := buildBrief(ctx, a, w, overview.Cards, whatIfFromFlags(cmd), !briefNoRecord)
	if err != nil {
		return err
	}
	return a.Print(cmd, &BriefResponseCLI{Scope: a.ScopeKey(), Brief: *brief})
}

// whatIfFromFlags returns nil unless a scenario flag was set.
func whatIfFromFlags(cmd *cobra.Command) *insights.WhatIf {
	f := cmd.Flags()
	if !f.Changed("entry-reduction") && !f.Changed("closure-boost") && !f.Changed("unblock") {
		return nil
	}
	return &insights.WhatIf{
		EntryReductionPct: briefEntryReduction,
		ClosureBoostPct:   briefClosureBoost,
		UnblockPct:        briefUnblock,
	}
}

// buildBrief compares the current snapshot with the scope's baseline and
// ranks next best actions, falling back to the first of cards. When record
// is set the session counter advances and the snapshot becomes the next
// baseline.
func buildBrief(ctx context.Context, a *app, w *workload, cards []insights.Card, whatIf *insights.WhatIf, record bool) (*report.Brief, error) {
	store, err := a.Store()
	if err != nil {
		return nil, err
	}
	th := a.cfg.Insights.Thresholds
	in := insights.Input{
		Dataset:    w.Data,
		Open:       w.Open,
		KPIs:       w.KPIs,
		Classifier: a.classifier,
	}

	snap := insights.TakeSnapshot(in, th)
	scope := a.ScopeKey()
	rec := store.Load(ctx, scope)

	brief := &report.Brief{
		Lines:    insights.OpsBrief(in, th),
		Changes:  insights.DeltaLines(snap, insights.Snapshot(rec.LastSnapshot)),
		Actions:  insights.NextBestActions(snap, cards, w.Open),
		Snapshot: snap,
		Health:   insights.AssessHealth(w.Open, a.now, th),
		WhatIf:   whatIf,
	}
	if whatIf != nil {
		p := insights.Simulate(snap, *whatIf)
		brief.Projection = &p
	}

	if record {
		if err := store.BeginSession(ctx, scope, a.now); err != nil {
			a.logger.Warn("Failed to start learning session", "scope", scope, "error", err.Error())
		}
		if err := store.SaveSnapshot(ctx, scope, snap, a.now); err != nil {
			a.logger.Warn("Failed to save brief snapshot", "scope", scope, "error", err.Error())
		}
	}
	return brief, nil
}
