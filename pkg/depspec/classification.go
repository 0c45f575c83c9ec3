// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Provided marks a dependency the host application supplies at runtime.
	// Its content must never reach the archive.
	Provided Classification = "provided"
	// Bundled marks a dependency whose content ships inside the archive.
	Bundled Classification = "bundled"
)

// ErrInvalidClassification is the sentinel error wrapped by InvalidClassificationError.
var ErrInvalidClassification = errors.New("invalid classification")

type (
	// Classification partitions dependencies into host-provided and bundled.
	Classification string

	// InvalidClassificationError is returned for unknown classification names.
	InvalidClassificationError struct {
		Value Classification
	}
)

// Error implements the error interface.
func (e *InvalidClassificationError) Error() string {
	return fmt.Sprintf("invalid classification %q (valid: %s, %s)", e.Value, Provided, Bundled)
}

// Unwrap returns ErrInvalidClassification for errors.Is() compatibility.
func (e *InvalidClassificationError) Unwrap() error { return ErrInvalidClassification }

// ParseClassification accepts "provided" or "bundled" in any case.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", &InvalidClassificationError{Value: Classification(s)}
	}
	return c, nil
}

// Validate returns an error unless c is Provided or Bundled.
func (c Classification) Validate() error {
	switch c {
	case Provided, Bundled:
		return nil
	default:
		return &InvalidClassificationError{Value: c}
	}
}

// String returns the upper-case display form used in reports.
func (c Classification) String() string { return strings.ToUpper(string(c)) }
