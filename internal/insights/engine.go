// Package insights scores backlog patterns into ranked insight cards.
package insights

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/slogutil"
)

// Card is a scored finding ready for display.
type Card struct {
	PatternID  string          `json:"patternId"`
	Category   Category        `json:"category"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	Signal     float64         `json:"signal"`
	Multiplier float64         `json:"multiplier"`
	Score      float64         `json:"score"`
	Filter     incident.Filter `json:"filter"`
	Actionable bool            `json:"actionable"`
}

// Failure records a pattern that errored or panicked.
type Failure struct {
	PatternID string `json:"patternId"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

// Result is the outcome of one evaluation.
type Result struct {
	Cards    []Card    `json:"cards"`
	Failures []Failure `json:"failures,omitempty"`
}

// Engine evaluates registered patterns and ranks their cards.
type Engine struct {
	registry *Registry
	policy   learning.Policy
	logger   *slog.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(registry *Registry, policy learning.Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Engine{
		registry: registry,
		policy:   policy,
		logger:   slogutil.Component(logger, "insights"),
	}
}

// Registry returns the engine's pattern registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate runs the requested patterns (all when ids is nil) against in and
// returns cards sorted by score descending, then pattern ID ascending.
// Unknown IDs are skipped. A failing pattern never aborts the others.
func (e *Engine) Evaluate(in Input, ids []string, rec *learning.Record) Result {
	if ids == nil {
		ids = e.registry.IDs()
	}
	c := newContext(in)
	domain := c.Open().Domain()

	res := Result{Cards: []Card{}}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		p, ok := e.registry.Get(id)
		if !ok {
			e.logger.Debug("Skipping unknown pattern", "pattern", id)
			continue
		}

		f, err := e.run(p, c)
		if err != nil {
			rerr := radarerrors.New(radarerrors.PatternFailed, fmt.Sprintf("pattern %s failed", id), err)
			e.logger.Warn("Pattern evaluation failed", "pattern", id, "error", err)
			res.Failures = append(res.Failures, Failure{PatternID: id, Err: rerr, Message: rerr.Error()})
			continue
		}
		if f == nil {
			continue
		}

		signal := clamp01(f.Signal)
		if signal <= 0 || signal < p.MinSignal {
			continue
		}

		filter := f.Filter.Resolve(domain)
		score := e.policy.Score(signal, rec, id, c.Now)
		res.Cards = append(res.Cards, Card{
			PatternID:  id,
			Category:   p.Category,
			Title:      f.Title,
			Body:       f.Body,
			Signal:     signal,
			Multiplier: score / signal,
			Score:      score,
			Filter:     filter,
			Actionable: !filter.IsEmpty(),
		})
	}

	sort.SliceStable(res.Cards, func(i, j int) bool {
		if res.Cards[i].Score != res.Cards[j].Score {
			return res.Cards[i].Score > res.Cards[j].Score
		}
		return res.Cards[i].PatternID < res.Cards[j].PatternID
	})
	return res
}

// run isolates one pattern, turning panics into errors.
func (e *Engine) run(p Pattern, c *Context) (f *Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("Pattern panic recovered", "pattern", p.ID, "stack", string(debug.Stack()))
			f = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Eval(c)
}
