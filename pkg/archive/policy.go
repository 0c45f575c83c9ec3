// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// FirstWins keeps the entry of the first-listed dependency source and
	// silently drops later ones. This is the default.
	FirstWins DuplicatePolicy = "first-wins"
	// ErrorOnConflict fails the assembly when two dependency sources write
	// the same path.
	ErrorOnConflict DuplicatePolicy = "error"
)

// ErrInvalidDuplicatePolicy is the sentinel error wrapped by InvalidDuplicatePolicyError.
var ErrInvalidDuplicatePolicy = errors.New("invalid duplicate policy")

type (
	// DuplicatePolicy decides which dependency entry survives when several
	// dependency sources write the same path. Build output always wins
	// regardless of policy.
	DuplicatePolicy string

	// InvalidDuplicatePolicyError is returned for unknown policy names.
	InvalidDuplicatePolicyError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidDuplicatePolicyError) Error() string {
	return fmt.Sprintf("invalid duplicate policy %q (valid: %s, %s)", e.Value, ErrorOnConflict, FirstWins)
}

// Unwrap returns ErrInvalidDuplicatePolicy for errors.Is() compatibility.
func (e *InvalidDuplicatePolicyError) Unwrap() error { return ErrInvalidDuplicatePolicy }

// ParseDuplicatePolicy parses a policy name. "exclude" is accepted as an
// alias of first-wins; an empty string yields the default.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FirstWins), "exclude":
		return FirstWins, nil
	case string(ErrorOnConflict):
		return ErrorOnConflict, nil
	default:
		return "", &InvalidDuplicatePolicyError{Value: s}
	}
}

// Validate returns an error unless p is FirstWins or ErrorOnConflict.
func (p DuplicatePolicy) Validate() error {
	switch p {
	case FirstWins, ErrorOnConflict:
		return nil
	default:
		return &InvalidDuplicatePolicyError{Value: string(p)}
	}
}

// String returns the policy name.
func (p DuplicatePolicy) String() string { return string(p) }
