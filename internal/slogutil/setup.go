package slogutil

import (
	"io"
	"log/slog"
	"os"
)

// Options selects where CLI logs go.
type Options struct {
	Level      slog.Level
	Stderr     io.Writer // defaults to os.Stderr
	File       string    // optional log file, tee'd with Stderr
	MaxSizeMB  int
	MaxBackups int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger. The returned closer must be closed on exit.
// When the log file cannot be opened the logger falls back to Stderr only.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	console := NewHandler(stderr, &slog.HandlerOptions{Level: opts.Level})
	if opts.File == "" {
		return slog.New(console), nopCloser{}
	}

	rf, err := OpenRotatingFile(opts.File, int64(opts.MaxSizeMB)*1024*1024, opts.MaxBackups)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("Log file unavailable, logging to stderr only", "path", opts.File, "error", err.Error())
		return logger, nopCloser{}
	}
	// the file always records info and above, even when the console is quiet
	fileLevel := opts.Level
	if fileLevel > slog.LevelInfo {
		fileLevel = slog.LevelInfo
	}
	file := NewHandler(rf, &slog.HandlerOptions{Level: fileLevel})
	return slog.New(NewTeeHandler(console, file)), rf
}
