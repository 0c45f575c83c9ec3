// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
	// ErrPathConflict is wrapped by PathConflictError.
	ErrPathConflict = errors.New("path conflict")
	// ErrIO is wrapped by IOError.
	ErrIO = errors.New("archive i/o failure")
)

type (
	// ConfigurationError reports invalid assembly options. It is always
	// returned before any output is created.
	ConfigurationError struct {
		Field string
		Err   error
	}

	// PathConflictError reports two dependency sources writing the same path
	// under the "error" duplicate policy.
	PathConflictError struct {
		Path   string
		First  string
		Second string
	}

	// IOError reports a failure reading a source or writing the archive.
	IOError struct {
		Op   string
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

// Unwrap exposes ErrConfiguration and the cause.
func (e *ConfigurationError) Unwrap() []error { return []error{ErrConfiguration, e.Err} }

// Error implements the error interface.
func (e *PathConflictError) Error() string {
	return fmt.Sprintf("path conflict at %q: contributed by both %s and %s", e.Path, e.First, e.Second)
}

// Unwrap returns ErrPathConflict for errors.Is() compatibility.
func (e *PathConflictError) Unwrap() error { return ErrPathConflict }

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes ErrIO and the cause.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }
