package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger based on configuration. Output
// goes to stdout and is appended to the configured log file. The returned
// closer releases the file and is never nil.
func NewLogger(cfg *Config) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	format := "text"
	path := ""
	if cfg != nil {
		if cfg.Debug {
			level = slog.LevelDebug
		}
		format = cfg.LogFormat
		path = cfg.LogFile
	}

	var (
		out     io.Writer = os.Stdout
		closer  io.Closer = nopCloser{}
		openErr error
	)
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			openErr = err
		} else {
			out = io.MultiWriter(os.Stdout, file)
			closer = file
		}
	}

	opts := &slog.HandlerOptions{AddSource: true, Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	logger := slog.New(handler)
	if openErr != nil {
		logger.Warn("log file unavailable, logging to stdout only", slog.String("path", path), slog.Any("error", openErr))
	}
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
