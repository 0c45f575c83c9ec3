// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatpack/fatpack/pkg/archive"
	"github.com/fatpack/fatpack/pkg/depspec"
	"github.com/fatpack/fatpack/pkg/resolve"
)

const (
	// LogLevelDebug enables debug output.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn only reports warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError only reports errors.
	LogLevelError LogLevel = "error"

	// LogFormatText is the human readable, styled format.
	LogFormatText LogFormat = "text"
	// LogFormatJSON emits one JSON object per record.
	LogFormatJSON LogFormat = "json"
	// LogFormatLogfmt emits logfmt key=value records.
	LogFormatLogfmt LogFormat = "logfmt"

	// DefaultRepository is the local repository searched when none is configured.
	DefaultRepository = "$HOME/.m2/repository"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of emitted log records.
	LogLevel string

	// LogFormat selects the log record encoding.
	LogFormat string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidLogFormatError is returned when a LogFormat value is not recognized.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the user configuration.
	Config struct {
		// Repositories are local artifact repositories in search order.
		Repositories []string `json:"repositories" mapstructure:"repositories"`
		// DuplicatePolicy is used when neither the project nor the CLI sets one.
		DuplicatePolicy string `json:"duplicate_policy" mapstructure:"duplicate_policy"`
		// Classifier is appended to the default archive name.
		Classifier string `json:"classifier" mapstructure:"classifier"`
		// LockFile is the lock file name relative to the project directory.
		LockFile string `json:"lock_file" mapstructure:"lock_file"`
		// Log configures the slog handler.
		Log LogConfig `json:"log" mapstructure:"log"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// Verbose enables debug logging and detailed error output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Repositories:    []string{DefaultRepository},
		DuplicatePolicy: string(archive.FirstWins),
		Classifier:      depspec.DefaultClassifier,
		LockFile:        resolve.LockFileName,
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Validate returns an error if the level is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate returns an error if the format is not recognized.
func (f LogFormat) Validate() error {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return nil
	default:
		return &InvalidLogFormatError{Value: f}
	}
}

// String returns the format name.
func (f LogFormat) String() string { return string(f) }

// Error implements the error interface.
func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json, logfmt)", e.Value)
}

// Unwrap returns ErrInvalidLogFormat for errors.Is() compatibility.
func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }

// Validate checks every field. Environment overrides bypass the CUE schema,
// so the same constraints are enforced here.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Repositories) == 0 {
		errs = append(errs, errors.New("repositories: at least one repository is required"))
	}
	for i, repo := range c.Repositories {
		if strings.TrimSpace(repo) == "" {
			errs = append(errs, fmt.Errorf("repositories[%d]: must be non-empty", i))
		}
	}
	if _, err := archive.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		errs = append(errs, fmt.Errorf("duplicate_policy: %w", err))
	}
	if strings.TrimSpace(c.LockFile) == "" {
		errs = append(errs, errors.New("lock_file: must be non-empty"))
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := c.Log.Format.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
