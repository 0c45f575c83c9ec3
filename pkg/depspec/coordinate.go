// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidCoordinate is the sentinel error wrapped by InvalidCoordinateError.
var ErrInvalidCoordinate = errors.New("invalid dependency coordinate")

type (
	// Coordinate identifies a library by group, name and version, written as
	// "group:name:version".
	Coordinate struct {
		Group   string
		Name    string
		Version string
	}

	// InvalidCoordinateError is returned when a coordinate is malformed.
	InvalidCoordinateError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid dependency coordinate %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidCoordinate for errors.Is() compatibility.
func (e *InvalidCoordinateError) Unwrap() error { return ErrInvalidCoordinate }

// ParseCoordinate parses "group:name:version".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coordinate{}, &InvalidCoordinateError{Value: s, Reason: "expected group:name:version"}
	}
	c := Coordinate{Group: parts[0], Name: parts[1], Version: parts[2]}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// MustParseCoordinate is like ParseCoordinate but panics on error.
// Intended for tests and static tables.
func MustParseCoordinate(s string) Coordinate {
	c, err := ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate returns an error if any part is empty or contains whitespace or ':'.
func (c Coordinate) Validate() error {
	for _, part := range []struct{ label, value string }{
		{"group", c.Group},
		{"name", c.Name},
		{"version", c.Version},
	} {
		if part.value == "" {
			return &InvalidCoordinateError{Value: c.String(), Reason: part.label + " must not be empty"}
		}
		if strings.ContainsFunc(part.value, func(r rune) bool { return r == ':' || unicode.IsSpace(r) }) {
			return &InvalidCoordinateError{Value: c.String(), Reason: part.label + " must not contain ':' or whitespace"}
		}
	}
	return nil
}

// Key returns "group:name", the version-independent identity of the library.
func (c Coordinate) Key() string { return c.Group + ":" + c.Name }

// String returns "group:name:version".
func (c Coordinate) String() string { return c.Group + ":" + c.Name + ":" + c.Version }

// IsZero reports whether the coordinate is unset.
func (c Coordinate) IsZero() bool { return c == Coordinate{} }
