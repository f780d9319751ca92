package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
)

func clearRadarEnv(t *testing.T) {
	t.Helper()
	for _, v := range append(GetSupportedEnvVars(), EnvConfigPath) {
		t.Setenv(v, "")
	}
}

func writeConfig(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, ".radar")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.DataDir != ".radar" {
		t.Errorf("DataDir = %q, want .radar", cfg.DataDir)
	}
	if cfg.KPI.WindowDays != 14 {
		t.Errorf("KPI.WindowDays = %d, want 14", cfg.KPI.WindowDays)
	}
	if cfg.Insights.TopN != 4 {
		t.Errorf("Insights.TopN = %d, want 4", cfg.Insights.TopN)
	}
	if cfg.Learning.Backend != BackendSQLite {
		t.Errorf("Learning.Backend = %q, want sqlite", cfg.Learning.Backend)
	}
	if cfg.Learning.Policy.RecoveryAfter != 7*24*time.Hour {
		t.Errorf("RecoveryAfter = %v, want 168h", cfg.Learning.Policy.RecoveryAfter)
	}
	if len(cfg.Status.FinalStatuses) == 0 {
		t.Error("FinalStatuses should not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestDefaultConfig_Independent(t *testing.T) {
	a := DefaultConfig()
	a.Status.FinalStatuses[0] = "mutated"

	b := DefaultConfig()
	if b.Status.FinalStatuses[0] == "mutated" {
		t.Error("DefaultConfig should not share slices between calls")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"window too small", func(c *Config) { c.KPI.WindowDays = 0 }, "kpi.windowDays"},
		{"window too large", func(c *Config) { c.KPI.WindowDays = 400 }, "kpi.windowDays"},
		{"bad buckets", func(c *Config) { c.KPI.AgeBuckets = "a-b" }, "kpi.ageBuckets"},
		{"zero over days", func(c *Config) { c.KPI.OverDays = 0 }, "kpi.overDays"},
		{"negative lookback", func(c *Config) { c.Dataset.LookbackMonths = -1 }, "dataset.lookbackMonths"},
		{"zero top n", func(c *Config) { c.Insights.TopN = 0 }, "insights.topN"},
		{"no finals", func(c *Config) { c.Status.FinalStatuses = nil }, "status.finalStatuses"},
		{"unknown backend", func(c *Config) { c.Learning.Backend = "redis" }, "learning.backend"},
		{"decay above one", func(c *Config) { c.Learning.Policy.Decay = 1.5 }, "learning.policy.decay"},
		{"zero floor", func(c *Config) { c.Learning.Policy.Floor = 0 }, "learning.policy.floor"},
		{"boost below one", func(c *Config) { c.Learning.Policy.MaxBoost = 0.5 }, "learning.policy.maxBoost"},
		{"boost above ceiling", func(c *Config) { c.Learning.Policy.MaxBoost = 4 }, "learning.policy.maxBoost"},
		{"boost at ceiling", func(c *Config) { c.Learning.Policy.MaxBoost = 1.5 }, ""},
		{"negative novelty step", func(c *Config) { c.Learning.Policy.NoveltyStep = -0.5 }, "learning.policy.noveltyStep"},
		{"zero novelty step", func(c *Config) { c.Learning.Policy.NoveltyStep = 0 }, ""},
		{"negative engagement weight", func(c *Config) { c.Learning.Policy.EngagementWeight = -0.1 }, "learning.policy.engagementWeight"},
		{"strong floor below floor", func(c *Config) { c.Learning.Policy.StrongFloor = 0.1 }, "learning.policy.strongFloor"},
		{"strong floor above boost", func(c *Config) {
			c.Learning.Policy.MaxBoost = 1.2
			c.Learning.Policy.StrongFloor = 1.3
		}, "learning.policy.strongFloor"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

// Any policy that validates keeps the multiplier in (0, MaxBoostCeiling] and
// never pushes a long-unseen pattern below 1.
func TestConfig_ValidatedPolicyBoundsMultiplier(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := learning.NewRecord(learning.NewScopeKey("ES", "jira-1"))
	for i := 0; i < 6; i++ {
		rec.Apply("aging.backlog", learning.Shown, now.AddDate(0, 0, -30))
	}

	policies := []func(*learning.Policy){
		func(*learning.Policy) {},
		func(p *learning.Policy) { p.MaxBoost, p.NoveltyStep = 4, 1 },
		func(p *learning.Policy) { p.NoveltyStep = -0.5 },
		func(p *learning.Policy) { p.EngagementWeight = -2 },
	}
	for i, mutate := range policies {
		cfg := DefaultConfig()
		mutate(&cfg.Learning.Policy)
		if err := cfg.Validate(); err != nil {
			continue
		}
		m := cfg.Learning.Policy.Multiplier(rec, "aging.backlog", now)
		if m < 1 || m > learning.MaxBoostCeiling {
			t.Errorf("policy %d validated but Multiplier = %v after 30 idle days", i, m)
		}
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "insights.topN", Message: "must be positive"}
	want := "config error in field 'insights.topN': must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAsRadarError(t *testing.T) {
	if AsRadarError(nil) != nil {
		t.Error("AsRadarError(nil) should be nil")
	}

	err := AsRadarError(&ConfigError{Field: "version", Message: "bad"})
	if radarerrors.CodeOf(err) != radarerrors.ConfigInvalid {
		t.Errorf("CodeOf = %s, want CONFIG_INVALID", radarerrors.CodeOf(err))
	}

	plain := errors.New("boom")
	if AsRadarError(plain) != plain {
		t.Error("non-config errors should pass through")
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearRadarEnv(t)
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Insights.TopN != 4 {
		t.Errorf("TopN = %d, want default 4", cfg.Insights.TopN)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearRadarEnv(t)
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{
		"version": 1,
		"status": {"finalStatuses": ["Closed", "Won't fix"]},
		"kpi": {"windowDays": 30},
		"insights": {"topN": 6, "thresholds": {"ageDays": 45}},
		"learning": {"backend": "file", "policy": {"recoveryAfter": "72h", "decay": 0.9}}
	}`)

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.KPI.WindowDays != 30 {
		t.Errorf("WindowDays = %d, want 30", cfg.KPI.WindowDays)
	}
	if cfg.Insights.TopN != 6 {
		t.Errorf("TopN = %d, want 6", cfg.Insights.TopN)
	}
	if cfg.Insights.Thresholds.AgeDays != 45 {
		t.Errorf("Thresholds.AgeDays = %d, want 45", cfg.Insights.Thresholds.AgeDays)
	}
	// untouched keys keep their defaults
	if cfg.Insights.Thresholds.StaleDays != 14 {
		t.Errorf("Thresholds.StaleDays = %d, want default 14", cfg.Insights.Thresholds.StaleDays)
	}
	if cfg.KPI.AgeBuckets != "0-7,8-30,31-90,>90" {
		t.Errorf("AgeBuckets = %q, want default", cfg.KPI.AgeBuckets)
	}
	if len(cfg.Status.FinalStatuses) != 2 || cfg.Status.FinalStatuses[1] != "Won't fix" {
		t.Errorf("FinalStatuses = %v, want [Closed Won't fix]", cfg.Status.FinalStatuses)
	}
	if cfg.Learning.Backend != BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Learning.Backend)
	}
	if cfg.Learning.Policy.RecoveryAfter != 72*time.Hour {
		t.Errorf("RecoveryAfter = %v, want 72h", cfg.Learning.Policy.RecoveryAfter)
	}
	if cfg.Learning.Policy.Decay != 0.9 {
		t.Errorf("Decay = %v, want 0.9", cfg.Learning.Policy.Decay)
	}
	if cfg.Learning.Policy.Floor != 0.3 {
		t.Errorf("Floor = %v, want default 0.3", cfg.Learning.Policy.Floor)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	clearRadarEnv(t)
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json`)

	_, err := LoadConfig(tmpDir)
	if err == nil {
		t.Fatal("LoadConfig() should fail on invalid JSON")
	}
	if radarerrors.CodeOf(err) != radarerrors.ConfigInvalid {
		t.Errorf("CodeOf = %s, want CONFIG_INVALID", radarerrors.CodeOf(err))
	}
}

func TestConfig_Save(t *testing.T) {
	clearRadarEnv(t)
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Insights.TopN = 7
	cfg.Learning.Policy.RecoveryAfter = 48 * time.Hour
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, ".radar", "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Insights.TopN != 7 {
		t.Errorf("TopN = %d, want 7", loaded.Insights.TopN)
	}
	if loaded.Learning.Policy.RecoveryAfter != 48*time.Hour {
		t.Errorf("RecoveryAfter = %v, want 48h", loaded.Learning.Policy.RecoveryAfter)
	}
}

func TestSave_ErrorHandling(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := DefaultConfig().Save(blocker); err == nil {
		t.Error("Save() under a regular file should fail")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name:    "logging level override",
			envVars: map[string]string{"RADAR_LOG_LEVEL": "debug"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
				}
				if len(overrides) != 1 {
					t.Errorf("len(overrides) = %d, want 1", len(overrides))
				}
			},
		},
		{
			name:    "int override",
			envVars: map[string]string{"RADAR_TOP_N": "9"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Insights.TopN != 9 {
					t.Errorf("TopN = %d, want 9", cfg.Insights.TopN)
				}
			},
		},
		{
			name:    "duration override",
			envVars: map[string]string{"RADAR_LEARNING_RECOVERY_AFTER": "36h"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Learning.Policy.RecoveryAfter != 36*time.Hour {
					t.Errorf("RecoveryAfter = %v, want 36h", cfg.Learning.Policy.RecoveryAfter)
				}
			},
		},
		{
			name:    "final statuses list",
			envVars: map[string]string{"RADAR_FINAL": "Closed, Done ,"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if len(cfg.Status.FinalStatuses) != 2 || cfg.Status.FinalStatuses[1] != "Done" {
					t.Errorf("FinalStatuses = %v, want [Closed Done]", cfg.Status.FinalStatuses)
				}
			},
		},
		{
			name: "multiple overrides",
			envVars: map[string]string{
				"RADAR_LOG_LEVEL":        "warn",
				"RADAR_WINDOW_DAYS":      "60",
				"RADAR_LEARNING_BACKEND": "MEMORY",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "warn" {
					t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
				}
				if cfg.KPI.WindowDays != 60 {
					t.Errorf("WindowDays = %d, want 60", cfg.KPI.WindowDays)
				}
				if cfg.Learning.Backend != BackendMemory {
					t.Errorf("Backend = %q, want memory", cfg.Learning.Backend)
				}
				if len(overrides) != 3 {
					t.Errorf("len(overrides) = %d, want 3", len(overrides))
				}
			},
		},
		{
			name:    "invalid int ignored",
			envVars: map[string]string{"RADAR_TOP_N": "not-a-number"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Insights.TopN != 4 {
					t.Errorf("TopN = %d, want 4 (default)", cfg.Insights.TopN)
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
		{
			name:    "invalid float ignored",
			envVars: map[string]string{"RADAR_LEARNING_DECAY": "fast"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Learning.Policy.Decay != 0.85 {
					t.Errorf("Decay = %v, want 0.85 (default)", cfg.Learning.Policy.Decay)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearRadarEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			overrides := ApplyEnvOverrides(cfg)
			tt.validate(t, cfg, overrides)
		})
	}
}

func TestApplyOverride_InvalidPath(t *testing.T) {
	cfg := DefaultConfig()
	if applyOverride(cfg, "nope.nothing", "x") {
		t.Error("unknown path should not apply")
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()
	if len(vars) != len(envVarMappings) {
		t.Fatalf("len = %d, want %d", len(vars), len(envVarMappings))
	}
	for i := 1; i < len(vars); i++ {
		if vars[i-1] > vars[i] {
			t.Fatalf("vars not sorted: %q before %q", vars[i-1], vars[i])
		}
	}

	found := false
	for _, v := range vars {
		if v == "RADAR_LOG_LEVEL" {
			found = true
		}
	}
	if !found {
		t.Error("GetSupportedEnvVars() should include RADAR_LOG_LEVEL")
	}
}

func TestLoadConfigWithDetails(t *testing.T) {
	clearRadarEnv(t)
	tmpDir := t.TempDir()

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if !result.UsedDefaults {
		t.Error("UsedDefaults should be true when no config file exists")
	}
	if result.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", result.ConfigPath)
	}
}

func TestLoadConfigWithDetails_EnvConfigPath(t *testing.T) {
	clearRadarEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.json")
	if err := os.WriteFile(configPath, []byte(`{"version": 1, "insights": {"topN": 2}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv(EnvConfigPath, configPath)

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}
	if result.Config.Insights.TopN != 2 {
		t.Errorf("TopN = %d, want 2", result.Config.Insights.TopN)
	}
}

func TestLoadConfigWithDetails_InvalidConfigPath(t *testing.T) {
	clearRadarEnv(t)
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfigWithDetails(t.TempDir()); err == nil {
		t.Error("an explicit missing config path should fail")
	}
}

func TestLoadConfigWithDetails_EnvOverridesApplied(t *testing.T) {
	clearRadarEnv(t)
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"version": 1, "insights": {"topN": 5}}`)
	t.Setenv("RADAR_TOP_N", "3")
	t.Setenv("RADAR_LOG_LEVEL", "error")

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.Config.Insights.TopN != 3 {
		t.Errorf("TopN = %d, want env value 3", result.Config.Insights.TopN)
	}
	if result.Config.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error", result.Config.Logging.Level)
	}
	if len(result.EnvOverrides) != 2 {
		t.Errorf("len(EnvOverrides) = %d, want 2", len(result.EnvOverrides))
	}
}
