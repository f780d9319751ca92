package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/config"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/dataset"
	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/pack"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/paths"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/slogutil"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/storage"
)

// app holds the per-invocation wiring shared by commands.
type app struct {
	root    string
	dataDir string
	cfg     *config.Config
	logger  *slog.Logger
	now     time.Time
	scope   learning.ScopeKey

	classifier status.Classifier
	themes     []insights.Theme

	store   *learning.Store
	events  *storage.LearningBackend
	closers []io.Closer
}

// workload is the selected incident set and its KPIs.
type workload struct {
	All    incident.Dataset
	Data   incident.Dataset
	Open   incident.Dataset
	Filter incident.Filter
	KPIs   kpi.Snapshot
	Months int
}

func newApp() (*app, error) {
	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	result, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	cfg := result.Config
	if err := cfg.Validate(); err != nil {
		return nil, config.AsRadarError(err)
	}

	a := &app{
		root:       root,
		dataDir:    paths.DataDir(root, cfg.DataDir),
		cfg:        cfg,
		classifier: status.NewClassifier(cfg.Status.FinalStatuses),
	}
	a.logger = a.setupLogger()

	for _, o := range result.EnvOverrides {
		a.logger.Debug("Applied env override", "env", o.EnvVar, "path", o.Path)
	}
	if result.ConfigPath != "" {
		a.logger.Debug("Loaded config", "path", result.ConfigPath)
	}

	if a.now, err = parseNow(nowFlag); err != nil {
		a.Close()
		return nil, err
	}

	a.scope = learning.NewScopeKey("", "")
	if strings.TrimSpace(scopeFlag) != "" {
		key, err := learning.ParseScopeKey(scopeFlag)
		if err != nil {
			a.Close()
			return nil, radarerrors.New(radarerrors.ScopeInvalid, "invalid --scope", err)
		}
		a.scope = key
	}

	a.themes = insights.DefaultThemes
	if p := cfg.Insights.ThemesPath; p != "" {
		themes, err := insights.LoadThemes(paths.ResolvePath(root, p))
		if err != nil {
			a.Close()
			return nil, radarerrors.New(radarerrors.ConfigInvalid, "cannot load themes", err)
		}
		a.themes = themes
	}
	return a, nil
}

func (a *app) setupLogger() *slog.Logger {
	level := slogutil.LevelFromString(a.cfg.Logging.Level)
	if verbosity > 0 || quietFlag {
		level = slogutil.LevelFromVerbosity(verbosity, quietFlag)
	}
	file := a.cfg.Logging.File
	if file != "" {
		file = paths.ResolvePath(a.root, file)
	}
	logger, closer := slogutil.Setup(slogutil.Options{
		Level:      level,
		File:       file,
		MaxSizeMB:  a.cfg.Logging.MaxSizeMB,
		MaxBackups: a.cfg.Logging.MaxBackups,
	})
	a.closers = append(a.closers, closer)
	return logger
}

// Close releases the store and log file.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// Store opens the configured learning backend on first use.
func (a *app) Store() (*learning.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	var backend learning.Backend
	switch a.cfg.Learning.Backend {
	case config.BackendMemory:
		backend = learning.NewMemoryBackend()
	case config.BackendFile:
		path := paths.LearningFilePath(a.dataDir)
		if a.cfg.Learning.Path != "" {
			path = paths.ResolvePath(a.root, a.cfg.Learning.Path)
		}
		backend = learning.NewFileBackend(path)
	default:
		path := paths.DatabasePath(a.dataDir)
		if a.cfg.Learning.Path != "" {
			path = paths.ResolvePath(a.root, a.cfg.Learning.Path)
		}
		db, err := storage.Open(path, a.logger)
		if err != nil {
			return nil, radarerrors.New(radarerrors.StoreUnavailable, "cannot open learning database", err)
		}
		a.closers = append(a.closers, db)
		a.events = storage.NewLearningBackend(db)
		backend = a.events
	}

	a.store = learning.NewStore(backend, a.cfg.Learning.Policy, a.logger)
	return a.store, nil
}

// Load reads the dataset and applies scope, lookback and filter flags.
func (a *app) Load() (*workload, error) {
	path := dataFlag
	if path == "" {
		path = a.cfg.Dataset.Path
	}
	if path == "" {
		return nil, radarerrors.New(radarerrors.DatasetInvalid, "no dataset: pass --data or set dataset.path", nil)
	}

	doc, err := dataset.Load(paths.ResolvePath(a.root, path))
	if err != nil {
		return nil, err
	}
	all := doc.Incidents()

	months := a.cfg.Dataset.LookbackMonths
	if lookbackFlag >= 0 {
		months = lookbackFlag
	}
	sel := dataset.Selection{LookbackMonths: months}
	if a.scope.Country != learning.DefaultCountry {
		sel.Country = a.scope.Country
	}
	if a.scope.Source != learning.DefaultSource {
		sel.SourceID = a.scope.Source
	}
	scoped := dataset.Select(all, sel, a.now)

	requested := incident.Filter{Status: statusFilter, Priority: priorityFilter, Assignee: assigneeFilter}
	filter := requested.ResolveAndRelax(scoped.Open(a.classifier))
	if !requested.IsEmpty() {
		a.logger.Debug("Resolved filter", "requested", requested, "resolved", filter)
	}

	buckets, err := kpi.ParseBuckets(a.cfg.KPI.AgeBuckets)
	if err != nil {
		return nil, config.AsRadarError(&config.ConfigError{Field: "kpi.ageBuckets", Message: err.Error()})
	}

	data := filter.Apply(scoped)
	w := &workload{
		All:    all,
		Data:   data,
		Open:   data.Open(a.classifier),
		Filter: filter,
		Months: dataset.EffectiveLookbackMonths(months, scoped, a.now),
	}
	w.KPIs = kpi.Compute(data, kpi.NewWindow(a.now, a.cfg.KPI.WindowDays), kpi.Options{
		Classifier: a.classifier,
		Buckets:    buckets,
		OverDays:   a.cfg.KPI.OverDays,
	})

	a.logger.Info("Loaded dataset",
		"path", path,
		"incidents", len(all),
		"selected", len(data),
		"open", len(w.Open),
		"months", w.Months)
	return w, nil
}

// Builder wires the engine, learning store and chart catalog.
func (a *app) Builder(withLearning bool) (*pack.Builder, error) {
	var store *learning.Store
	if withLearning {
		s, err := a.Store()
		if err != nil {
			return nil, err
		}
		store = s
	}
	th := a.cfg.Insights.Thresholds
	engine := insights.NewEngine(insights.DefaultRegistry(th, a.themes), a.cfg.Learning.Policy, a.logger)
	return pack.NewBuilder(engine, store, pack.DefaultCatalog(), pack.Options{
		TopN:       a.cfg.Insights.TopN,
		Thresholds: th,
		Themes:     a.themes,
		Classifier: a.classifier,
		Clock:      func() time.Time { return a.now },
	}, a.logger), nil
}

// ScopeKey is the canonical learning scope for this run.
func (a *app) ScopeKey() string {
	return a.scope.String()
}

// Print renders resp in the --format selected.
func (a *app) Print(cmd *cobra.Command, resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func parseNow(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now().UTC(), nil
	}
	t, ok := dataset.ParseTime(s)
	if !ok {
		return time.Time{}, errors.New("invalid --now " + s + ": want RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

// newContext returns a context cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
