// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	"errors"
	"fmt"
)

// ErrInvalidExclusion is the sentinel error wrapped by InvalidExclusionError.
var ErrInvalidExclusion = errors.New("invalid exclusion pattern")

type (
	// ExclusionPattern drops every library of Group, or only Group:Module
	// when Module is set. Versions are never part of an exclusion.
	ExclusionPattern struct {
		Group  string
		Module string
	}

	// InvalidExclusionError is returned when an exclusion has no group.
	InvalidExclusionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidExclusionError) Error() string {
	return fmt.Sprintf("invalid exclusion pattern %q: group is required", e.Value)
}

// Unwrap returns ErrInvalidExclusion for errors.Is() compatibility.
func (e *InvalidExclusionError) Unwrap() error { return ErrInvalidExclusion }

// Validate returns an error if the group is empty.
func (p ExclusionPattern) Validate() error {
	if p.Group == "" {
		return &InvalidExclusionError{Value: p.String()}
	}
	return nil
}

// Matches reports whether c falls under the pattern.
func (p ExclusionPattern) Matches(c Coordinate) bool {
	if p.Group != c.Group {
		return false
	}
	return p.Module == "" || p.Module == c.Name
}

// String returns "group" or "group:module".
func (p ExclusionPattern) String() string {
	if p.Module == "" {
		return p.Group
	}
	return p.Group + ":" + p.Module
}

// MatchAny returns the first pattern matching c.
func MatchAny(patterns []ExclusionPattern, c Coordinate) (ExclusionPattern, bool) {
	for _, p := range patterns {
		if p.Matches(c) {
			return p, true
		}
	}
	return ExclusionPattern{}, false
}
