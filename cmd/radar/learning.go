package main

import (
	"fmt"

	"github.com/spf13/cobra"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
)

var (
	learningDryRun      bool
	learningEventsLimit int
)

var learningCmd = &cobra.Command{
	Use:   "learning",
	Short: "Inspect and manage per-scope learning state",
	Long: `The learning store remembers which insights were shown and acted on for
each country/source scope. Fatigue lowers the rank of insights that keep
being ignored; novelty lifts insights that have not been seen for a while.`,
}

var learningShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show pattern counters and current multipliers for the scope",
	Args:  cobra.NoArgs,
	RunE:  runLearningShow,
}

var learningClickCmd = &cobra.Command{
	Use:   "click <pattern-id>",
	Short: "Record that an insight was acted on",
	Args:  cobra.ExactArgs(1),
	RunE:  runLearningClick,
}

var learningScopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "List scopes with persisted learning state",
	Args:  cobra.NoArgs,
	RunE:  runLearningScopes,
}

var learningForgetCmd = &cobra.Command{
	Use:   "forget-source <source-id>",
	Short: "Delete learning state for every scope of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runLearningForget,
}

var learningEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the interaction log (sqlite backend)",
	Args:  cobra.NoArgs,
	RunE:  runLearningEvents,
}

func init() {
	learningForgetCmd.Flags().BoolVar(&learningDryRun, "dry-run", false, "Only count the scopes that would be removed")
	learningEventsCmd.Flags().IntVarP(&learningEventsLimit, "limit", "n", 50, "Number of events to show (0: all)")

	learningCmd.AddCommand(learningShowCmd, learningClickCmd, learningScopesCmd, learningForgetCmd, learningEventsCmd)
	rootCmd.AddCommand(learningCmd)
}

// PatternRowCLI is one pattern's counters and multiplier
type PatternRowCLI struct {
	PatternID  string  `json:"patternId"`
	Shown      int     `json:"shown"`
	Clicked    int     `json:"clicked"`
	Multiplier float64 `json:"multiplier"`
}

// LearningResponseCLI is the learning show output
type LearningResponseCLI struct {
	Record   *learning.Record `json:"record"`
	Patterns []PatternRowCLI  `json:"patterns"`
}

// ScopesResponseCLI lists persisted scopes
type ScopesResponseCLI struct {
	Scopes []string `json:"scopes"`
}

// EventsResponseCLI is the learning events output
type EventsResponseCLI struct {
	Events []learning.Event `json:"events"`
}

func runLearningShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.Store()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	rec := store.Load(ctx, a.ScopeKey())
	return a.Print(cmd, &LearningResponseCLI{
		Record:   rec,
		Patterns: patternRows(store, rec, a.now),
	})
}

func runLearningClick(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	builder, err := a.Builder(true)
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	patternID := args[0]
	if _, ok := insights.DefaultRegistry(a.cfg.Insights.Thresholds, a.themes).Get(patternID); !ok {
		return radarerrors.New(radarerrors.PatternFailed, "unknown insight pattern "+patternID, nil)
	}
	if err := builder.MarkClicked(ctx, a.ScopeKey(), patternID); err != nil {
		return err
	}
	return a.Print(cmd, &MessageResponseCLI{
		Message: fmt.Sprintf("Recorded click on %s for %s", patternID, a.ScopeKey()),
	})
}

func runLearningScopes(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.Store()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	scopes, err := store.Scopes(ctx)
	if err != nil {
		return err
	}
	return a.Print(cmd, &ScopesResponseCLI{Scopes: scopes})
}

func runLearningForget(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.Store()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	source := args[0]
	if learningDryRun {
		n, err := store.CountSourceScopes(ctx, source)
		if err != nil {
			return err
		}
		return a.Print(cmd, &MessageResponseCLI{
			Message: fmt.Sprintf("%d scope(s) of source %s would be removed", n, source),
		})
	}

	n, err := store.RemoveSource(ctx, source)
	if err != nil {
		return err
	}
	return a.Print(cmd, &MessageResponseCLI{
		Message: fmt.Sprintf("Removed %d scope(s) of source %s", n, source),
	})
}

func runLearningEvents(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Store(); err != nil {
		return err
	}
	if a.events == nil {
		return radarerrors.New(radarerrors.StoreUnavailable,
			"the interaction log needs learning.backend=sqlite (current: "+a.cfg.Learning.Backend+")", nil)
	}
	ctx, cancel := newContext()
	defer cancel()

	scope := ""
	if cmd.Flags().Changed("scope") {
		scope = a.ScopeKey()
	}
	events, err := a.events.Events(ctx, scope, learningEventsLimit)
	if err != nil {
		return err
	}
	return a.Print(cmd, &EventsResponseCLI{Events: events})
}
