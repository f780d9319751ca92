// Package pack assembles per-chart insight packs: three headline metrics,
// the top ranked cards and an executive tip.
package pack

import (
	"context"
	"log/slog"
	"time"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/slogutil"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// MetricCount is the fixed number of headline metrics per pack.
const MetricCount = 3

// DefaultTopN caps the cards in a pack.
const DefaultTopN = 4

// TrendInsightPack is the result of one evaluation cycle for one chart.
type TrendInsightPack struct {
	ChartID      string             `json:"chartId"`
	Scope        string             `json:"scope"`
	Metrics      []InsightMetric    `json:"metrics"`
	Cards        []insights.Card    `json:"cards"`
	ExecutiveTip string             `json:"executiveTip"`
	Skipped      []string           `json:"skippedPatterns,omitempty"`
	Failures     []insights.Failure `json:"-"`
}

// PatternIDs lists the card pattern IDs in rank order.
func (p TrendInsightPack) PatternIDs() []string {
	ids := make([]string, len(p.Cards))
	for i, c := range p.Cards {
		ids[i] = c.PatternID
	}
	return ids
}

// Options configure a Builder.
type Options struct {
	TopN       int
	Thresholds insights.Thresholds
	Themes     []insights.Theme
	Classifier status.Classifier
	Clock      func() time.Time
}

// Builder runs the engine for a chart and tracks what was shown.
type Builder struct {
	engine  *insights.Engine
	store   *learning.Store
	catalog *Catalog
	opts    Options
	logger  *slog.Logger
}

// NewBuilder creates a Builder. store may be nil, in which case no
// learning is applied or recorded.
func NewBuilder(engine *insights.Engine, store *learning.Store, catalog *Catalog, opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Thresholds == (insights.Thresholds{}) {
		opts.Thresholds = insights.DefaultThresholds()
	}
	if len(opts.Themes) == 0 {
		opts.Themes = insights.DefaultThemes
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Builder{
		engine:  engine,
		store:   store,
		catalog: catalog,
		opts:    opts,
		logger:  slogutil.Component(logger, "pack"),
	}
}

// Catalog returns the builder's chart catalog.
func (b *Builder) Catalog() *Catalog {
	return b.catalog
}

// Build evaluates chartID over ds. open may be nil, in which case it is
// derived from ds. The pack always has MetricCount metrics and a non-empty
// tip; an unknown chart yields neutral metrics and no cards.
func (b *Builder) Build(ctx context.Context, chartID string, ds, open incident.Dataset, kpis kpi.Snapshot, scope string) TrendInsightPack {
	if open == nil {
		open = ds.Open(b.opts.Classifier)
	}
	p := TrendInsightPack{
		ChartID: chartID,
		Scope:   scope,
		Cards:   []insights.Card{},
	}

	chart, ok := b.catalog.Get(chartID)
	if !ok {
		b.logger.Warn("No insight pack for chart",
			"chart", chartID,
			"error", radarerrors.New(radarerrors.ChartUnknown, "unknown chart "+chartID, nil))
		p.Metrics = fitMetrics(nil, MetricCount)
		p.ExecutiveTip = FallbackTip
		return p
	}

	var rec *learning.Record
	if b.store != nil {
		rec = b.store.Load(ctx, scope)
	}

	res := b.engine.Evaluate(insights.Input{
		Dataset:    ds,
		Open:       open,
		KPIs:       kpis,
		Classifier: b.opts.Classifier,
	}, chart.Patterns, rec)

	p.Cards = res.Cards
	if len(p.Cards) > b.opts.TopN {
		p.Cards = p.Cards[:b.opts.TopN]
	}
	p.Failures = res.Failures
	for _, f := range res.Failures {
		p.Skipped = append(p.Skipped, f.PatternID)
	}

	frame := &Frame{
		Dataset:    ds,
		Open:       open,
		KPIs:       kpis,
		Thresholds: b.opts.Thresholds,
		Themes:     b.opts.Themes,
		Now:        kpis.Window.Now,
	}
	metrics := make([]InsightMetric, 0, len(chart.Metrics))
	for _, m := range chart.Metrics {
		metrics = append(metrics, m(frame))
	}
	p.Metrics = fitMetrics(metrics, MetricCount)
	p.ExecutiveTip = ExecutiveTip(p.Cards)

	b.logger.Debug("Built insight pack",
		"chart", chartID,
		"scope", scope,
		"cards", len(p.Cards),
		"evaluated", len(res.Cards),
		"failures", len(res.Failures))
	return p
}

// MarkShown records the cards of packs as shown. A pattern carried by
// several packs of the same scope counts as one show. Build every pack of a
// render before calling it so later packs do not see earlier shows.
func (b *Builder) MarkShown(ctx context.Context, packs ...TrendInsightPack) error {
	if b.store == nil {
		return nil
	}
	var scopes []string
	byScope := map[string][]string{}
	seen := map[string]bool{}
	for _, p := range packs {
		for _, id := range p.PatternIDs() {
			key := p.Scope + "\x00" + id
			if seen[key] {
				continue
			}
			seen[key] = true
			if _, ok := byScope[p.Scope]; !ok {
				scopes = append(scopes, p.Scope)
			}
			byScope[p.Scope] = append(byScope[p.Scope], id)
		}
	}
	now := b.opts.Clock()
	for _, scope := range scopes {
		if err := b.store.RecordShown(ctx, scope, byScope[scope], now); err != nil {
			return err
		}
	}
	return nil
}

// MarkClicked records that the user applied the card for patternID.
func (b *Builder) MarkClicked(ctx context.Context, scope, patternID string) error {
	if b.store == nil {
		return nil
	}
	return b.store.RecordInteraction(ctx, scope, patternID, learning.Clicked, b.opts.Clock())
}
