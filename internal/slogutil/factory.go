package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"objcmeta/internal/config"
)

// EnvLogLevel overrides the configured level when no CLI flag is given.
const EnvLogLevel = "OBJCMETA_LOG_LEVEL"

// LoggerFactory builds the process logger from the logging config and CLI flags.
// Precedence for the console level: CLI flag > OBJCMETA_LOG_LEVEL > config > warn.
type LoggerFactory struct {
	root     string
	config   config.LoggingConfig
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliLevel is nil when no
// verbosity flag was given on the command line.
func NewLoggerFactory(root string, cfg config.LoggingConfig, cliLevel *slog.Level) *LoggerFactory {
	return &LoggerFactory{
		root:     root,
		config:   cfg,
		cliLevel: cliLevel,
	}
}

// Logger returns a logger writing to w. When logging.file is set, records at
// the configured level are also appended to that file.
func (f *LoggerFactory) Logger(w io.Writer) (*slog.Logger, error) {
	console := NewHandler(w, f.config.Format, f.effectiveLevel())

	path := f.LogPath()
	if path == "" {
		return slog.New(console), nil
	}

	out, err := OpenLogFile(path, f.config.MaxSize, f.config.MaxBackups)
	if err != nil {
		return slog.New(console), err
	}
	f.closers = append(f.closers, out)

	file := NewLineHandler(out, &slog.HandlerOptions{Level: f.fileLevel()})
	return slog.New(NewTeeHandler(console, file)), nil
}

// LogPath returns the log file location, or "" when file logging is off.
// Relative paths resolve against <root>/.objcmeta/logs.
func (f *LoggerFactory) LogPath() string {
	if f.config.File == "" {
		return ""
	}
	if filepath.IsAbs(f.config.File) {
		return f.config.File
	}
	return filepath.Join(f.root, config.DirName, "logs", f.config.File)
}

func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if env := os.Getenv(EnvLogLevel); env != "" {
		return LevelFromString(env)
	}
	return f.fileLevel()
}

// fileLevel ignores CLI flags so --quiet does not silence the log file.
func (f *LoggerFactory) fileLevel() slog.Level {
	if f.config.Level != "" {
		return LevelFromString(f.config.Level)
	}
	return slog.LevelWarn
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
