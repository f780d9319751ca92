package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvConfigPath points LoadConfigWithDetails at an explicit config file.
const EnvConfigPath = "RADAR_CONFIG_PATH"

// EnvOverride records one environment variable applied over the config.
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Path   string `json:"path"`
	Value  string `json:"value"`
}

// envVarMappings maps RADAR_* variables to config paths.
var envVarMappings = map[string]string{
	"RADAR_LOG_LEVEL":   "logging.level",
	"RADAR_LOG_FORMAT":  "logging.format",
	"RADAR_LOG_FILE":    "logging.file",
	"RADAR_DATA_DIR":    "dataDir",
	"RADAR_DATASET":     "dataset.path",
	"RADAR_LOOKBACK":    "dataset.lookbackMonths",
	"RADAR_FINAL":       "status.finalStatuses",
	"RADAR_WINDOW_DAYS": "kpi.windowDays",
	"RADAR_AGE_BUCKETS": "kpi.ageBuckets",
	"RADAR_OVER_DAYS":   "kpi.overDays",
	"RADAR_TOP_N":       "insights.topN",
	"RADAR_THEMES":      "insights.themesPath",

	"RADAR_LEARNING_BACKEND":           "learning.backend",
	"RADAR_LEARNING_PATH":              "learning.path",
	"RADAR_LEARNING_RECOVERY_AFTER":    "learning.policy.recoveryAfter",
	"RADAR_LEARNING_DECAY":             "learning.policy.decay",
	"RADAR_LEARNING_FLOOR":             "learning.policy.floor",
	"RADAR_LEARNING_MAX_BOOST":         "learning.policy.maxBoost",
	"RADAR_LEARNING_GRACE_SHOWS":       "learning.policy.graceShows",
	"RADAR_LEARNING_RECOVERY_SESSIONS": "learning.policy.recoverySessions",
}

// GetSupportedEnvVars returns the sorted list of recognised RADAR_* variables.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings))
	for k := range envVarMappings {
		vars = append(vars, k)
	}
	sort.Strings(vars)
	return vars
}

// ApplyEnvOverrides applies set RADAR_* variables to cfg. Values that fail to
// parse are ignored and leave the loaded value in place.
func ApplyEnvOverrides(cfg *Config) []EnvOverride {
	var applied []EnvOverride
	for _, envVar := range GetSupportedEnvVars() {
		value, ok := os.LookupEnv(envVar)
		if !ok || value == "" {
			continue
		}
		path := envVarMappings[envVar]
		if applyOverride(cfg, path, value) {
			applied = append(applied, EnvOverride{EnvVar: envVar, Path: path, Value: value})
		}
	}
	return applied
}

func applyOverride(cfg *Config, path, value string) bool {
	switch path {
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.file":
		cfg.Logging.File = value
	case "dataDir":
		cfg.DataDir = value
	case "dataset.path":
		cfg.Dataset.Path = value
	case "dataset.lookbackMonths":
		return setInt(&cfg.Dataset.LookbackMonths, value)
	case "status.finalStatuses":
		var finals []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				finals = append(finals, part)
			}
		}
		if len(finals) == 0 {
			return false
		}
		cfg.Status.FinalStatuses = finals
	case "kpi.windowDays":
		return setInt(&cfg.KPI.WindowDays, value)
	case "kpi.ageBuckets":
		cfg.KPI.AgeBuckets = value
	case "kpi.overDays":
		return setInt(&cfg.KPI.OverDays, value)
	case "insights.topN":
		return setInt(&cfg.Insights.TopN, value)
	case "insights.themesPath":
		cfg.Insights.ThemesPath = value
	case "learning.backend":
		cfg.Learning.Backend = strings.ToLower(value)
	case "learning.path":
		cfg.Learning.Path = value
	case "learning.policy.recoveryAfter":
		d, err := time.ParseDuration(value)
		if err != nil {
			return false
		}
		cfg.Learning.Policy.RecoveryAfter = d
	case "learning.policy.decay":
		return setFloat(&cfg.Learning.Policy.Decay, value)
	case "learning.policy.floor":
		return setFloat(&cfg.Learning.Policy.Floor, value)
	case "learning.policy.maxBoost":
		return setFloat(&cfg.Learning.Policy.MaxBoost, value)
	case "learning.policy.graceShows":
		return setInt(&cfg.Learning.Policy.GraceShows, value)
	case "learning.policy.recoverySessions":
		return setInt(&cfg.Learning.Policy.RecoverySessions, value)
	default:
		return false
	}
	return true
}

func setInt(dst *int, value string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	*dst = n
	return true
}

func setFloat(dst *float64, value string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	*dst = f
	return true
}
