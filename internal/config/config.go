package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/paths"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/status"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// SupportedConfigVersions lists the schema versions LoadConfig accepts.
var SupportedConfigVersions = []int{1}

// Learning backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config represents the complete radar configuration
type Config struct {
	Version int    `json:"version" mapstructure:"version"`
	DataDir string `json:"dataDir" mapstructure:"dataDir"`

	Dataset  DatasetConfig  `json:"dataset" mapstructure:"dataset"`
	Status   StatusConfig   `json:"status" mapstructure:"status"`
	KPI      KPIConfig      `json:"kpi" mapstructure:"kpi"`
	Insights InsightsConfig `json:"insights" mapstructure:"insights"`
	Learning LearningConfig `json:"learning" mapstructure:"learning"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// DatasetConfig points at the ingested incident export
type DatasetConfig struct {
	Path           string `json:"path" mapstructure:"path"`
	LookbackMonths int    `json:"lookbackMonths" mapstructure:"lookbackMonths"`
}

// StatusConfig contains the status vocabulary
type StatusConfig struct {
	FinalStatuses []string `json:"finalStatuses" mapstructure:"finalStatuses"`
}

// KPIConfig tunes the aggregator
type KPIConfig struct {
	WindowDays int    `json:"windowDays" mapstructure:"windowDays"`
	AgeBuckets string `json:"ageBuckets" mapstructure:"ageBuckets"`
	OverDays   int    `json:"overDays" mapstructure:"overDays"`
}

// InsightsConfig tunes the scoring engine and pack builder
type InsightsConfig struct {
	TopN       int                 `json:"topN" mapstructure:"topN"`
	ThemesPath string              `json:"themesPath" mapstructure:"themesPath"`
	Thresholds insights.Thresholds `json:"thresholds" mapstructure:"thresholds"`
}

// LearningConfig selects the learning backend and its policy
type LearningConfig struct {
	Backend string          `json:"backend" mapstructure:"backend"`
	Path    string          `json:"path" mapstructure:"path"`
	Policy  learning.Policy `json:"policy" mapstructure:"policy"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		DataDir: paths.DefaultDataDir,
		Status: StatusConfig{
			FinalStatuses: append([]string(nil), status.DefaultFinalStatuses...),
		},
		KPI: KPIConfig{
			WindowDays: kpi.DefaultWindowDays,
			AgeBuckets: kpi.DefaultBuckets,
			OverDays:   kpi.DefaultOverDays,
		},
		Insights: InsightsConfig{
			TopN:       4,
			Thresholds: insights.DefaultThresholds(),
		},
		Learning: LearningConfig{
			Backend: BackendSQLite,
			Policy:  learning.DefaultPolicy(),
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadResult carries the loaded config plus where it came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration from <root>/.radar/config.json
func LoadConfig(root string) (*Config, error) {
	result, err := LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads the config file (RADAR_CONFIG_PATH wins over the
// data dir), then applies RADAR_* env overrides on top.
func LoadConfigWithDetails(root string) (*LoadResult, error) {
	result := &LoadResult{}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		cfg, err := LoadConfigFromPath(envPath)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.ConfigPath = envPath
	} else {
		configDir := filepath.Join(root, paths.DefaultDataDir)
		cfg, err := LoadConfigFromPath(filepath.Join(configDir, "config.json"))
		switch {
		case err == nil:
			result.Config = cfg
			result.ConfigPath = filepath.Join(configDir, "config.json")
		case errors.Is(err, os.ErrNotExist):
			result.Config = DefaultConfig()
			result.UsedDefaults = true
		default:
			return nil, err
		}
	}

	result.EnvOverrides = ApplyEnvOverrides(result.Config)
	return result, nil
}

// LoadConfigFromPath reads a single config file over the defaults.
// A missing file yields an error wrapping os.ErrNotExist.
func LoadConfigFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, radarerrors.New(radarerrors.ConfigInvalid, "cannot read config file "+path, err)
	}

	cfg := DefaultConfig()
	// lists replace the defaults rather than merging element-wise
	if v.IsSet("status.finalStatuses") {
		cfg.Status.FinalStatuses = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, radarerrors.New(radarerrors.ConfigInvalid, "cannot decode config file "+path, err)
	}
	return cfg, nil
}

// Save writes the configuration to <root>/.radar/config.json
func (c *Config) Save(root string) error {
	configDir := filepath.Join(root, paths.DefaultDataDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	if c.KPI.WindowDays < kpi.MinWindowDays || c.KPI.WindowDays > kpi.MaxWindowDays {
		return &ConfigError{Field: "kpi.windowDays", Message: fmt.Sprintf("must be between %d and %d", kpi.MinWindowDays, kpi.MaxWindowDays)}
	}
	if _, err := kpi.ParseBuckets(c.KPI.AgeBuckets); err != nil {
		return &ConfigError{Field: "kpi.ageBuckets", Message: err.Error()}
	}
	if c.KPI.OverDays <= 0 {
		return &ConfigError{Field: "kpi.overDays", Message: "must be positive"}
	}
	if c.Dataset.LookbackMonths < 0 {
		return &ConfigError{Field: "dataset.lookbackMonths", Message: "must not be negative"}
	}
	if c.Insights.TopN <= 0 {
		return &ConfigError{Field: "insights.topN", Message: "must be positive"}
	}

	switch c.Learning.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return &ConfigError{Field: "learning.backend", Message: "must be one of sqlite, file, memory"}
	}
	if len(c.Status.FinalStatuses) == 0 {
		return &ConfigError{Field: "status.finalStatuses", Message: "must list at least one status"}
	}

	p := c.Learning.Policy
	if p.Decay <= 0 || p.Decay > 1 {
		return &ConfigError{Field: "learning.policy.decay", Message: "must be in (0, 1]"}
	}
	if p.Floor <= 0 || p.Floor > 1 {
		return &ConfigError{Field: "learning.policy.floor", Message: "must be in (0, 1]"}
	}
	if p.MaxBoost < 1 || p.MaxBoost > learning.MaxBoostCeiling {
		return &ConfigError{Field: "learning.policy.maxBoost", Message: fmt.Sprintf("must be in [1, %g]", learning.MaxBoostCeiling)}
	}
	if p.NoveltyStep < 0 {
		return &ConfigError{Field: "learning.policy.noveltyStep", Message: "must not be negative"}
	}
	if p.EngagementWeight < 0 {
		return &ConfigError{Field: "learning.policy.engagementWeight", Message: "must not be negative"}
	}
	if p.StrongFloor < p.Floor || p.StrongFloor > p.MaxBoost {
		return &ConfigError{Field: "learning.policy.strongFloor", Message: "must be between floor and maxBoost"}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// AsRadarError wraps a validation failure with the CONFIG_INVALID code.
func AsRadarError(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return radarerrors.New(radarerrors.ConfigInvalid, ce.Error(), err).WithDetails(map[string]string{"field": ce.Field})
	}
	return err
}
