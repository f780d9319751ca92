package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDataDir is the per-workspace directory holding config and state.
	DefaultDataDir = ".radar"
	// DatabaseFile is the SQLite learning store inside the data dir.
	DatabaseFile = "radar.db"
	// LearningFile is the compressed JSON learning store inside the data dir.
	LearningFile = "learning.json.zst"
	// LogsSubdir holds the rotating CLI log.
	LogsSubdir = "logs"
)

// ResolvePath makes p absolute against root. Empty stays empty, "~/" expands
// to the user's home directory, and slashes are converted for the platform.
func ResolvePath(root, p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// DataDir resolves the configured data dir, defaulting to <root>/.radar.
func DataDir(root, configured string) string {
	if configured == "" {
		configured = DefaultDataDir
	}
	return ResolvePath(root, configured)
}

// EnsureDataDir creates the data dir when missing and returns its path.
func EnsureDataDir(root, configured string) (string, error) {
	dir := DataDir(root, configured)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPath returns the config file location under the data dir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.json")
}

// DatabasePath returns the SQLite learning store location.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, DatabaseFile)
}

// LearningFilePath returns the file learning store location.
func LearningFilePath(dataDir string) string {
	return filepath.Join(dataDir, LearningFile)
}

// LogFilePath returns the rotating log file location.
func LogFilePath(dataDir string) string {
	return filepath.Join(dataDir, LogsSubdir, "radar.log")
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
