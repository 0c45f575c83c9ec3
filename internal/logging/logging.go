// SPDX-License-Identifier: MPL-2.0

// Package logging installs a charmbracelet/log logger as the slog default
// handler. Library packages log through log/slog only.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatpack/fatpack/internal/config"

	"github.com/charmbracelet/log"
)

// Options selects the level, format and destination of log output.
type Options struct {
	Level  config.LogLevel
	Format config.LogFormat
	// Verbose forces debug level regardless of Level.
	Verbose bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New builds a slog.Logger backed by a charm logger.
func New(opts Options) (*slog.Logger, error) {
	if opts.Level == "" {
		opts.Level = config.LogLevelInfo
	}
	if opts.Format == "" {
		opts.Format = config.LogFormatText
	}
	if err := opts.Level.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(opts.Level.String())
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = log.DebugLevel
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter(opts.Format),
		Prefix:          config.AppName,
		ReportTimestamp: opts.Format != config.LogFormatText,
	})

	return slog.New(handler), nil
}

// Setup builds a logger with New and makes it the slog default.
func Setup(opts Options) (*slog.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func formatter(f config.LogFormat) log.Formatter {
	switch f {
	case config.LogFormatJSON:
		return log.JSONFormatter
	case config.LogFormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
