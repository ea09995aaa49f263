// Package cliutil holds setup code shared by the r2d7 binaries.
package cliutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	r2d7log "github.com/esi-r2d7/r2d7-go/pkg/log"
)

// ParseLevel maps a -log-level flag value to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (must be debug, info, warn, or error)", level)
	}
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// ProtocolLogger opens the capture file at path. With debug enabled the
// events are mirrored to logger. The returned close function is never nil.
func ProtocolLogger(path string, logger *slog.Logger, debug bool) (r2d7log.Logger, func() error, error) {
	var loggers []r2d7log.Logger
	closeFn := func() error { return nil }

	if path != "" {
		fl, err := r2d7log.NewFileLogger(path)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open protocol log: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = fl.Close
	}
	if debug && logger != nil {
		loggers = append(loggers, r2d7log.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return r2d7log.NoopLogger{}, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return r2d7log.NewMultiLogger(loggers...), closeFn, nil
	}
}
