// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultEntryPointAttribute is the manifest attribute the host reads to find
// the plugin entry point.
const DefaultEntryPointAttribute = "Main-Class"

var (
	// ErrMissingEntryPoint is returned when no entry point was configured.
	ErrMissingEntryPoint = errors.New("missing entry point")

	// ErrInvalidManifestAttribute is the sentinel error wrapped by InvalidManifestAttributeError.
	ErrInvalidManifestAttribute = errors.New("invalid manifest attribute")
)

type (
	// ManifestSpec describes the metadata recorded in the archive manifest.
	ManifestSpec struct {
		EntryPoint string
		// EntryPointAttribute defaults to DefaultEntryPointAttribute.
		EntryPointAttribute string
		// Attributes are extra main-section attributes.
		Attributes map[string]string
	}

	// InvalidManifestAttributeError is returned for attribute names the JAR
	// manifest format cannot represent.
	InvalidManifestAttributeError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *InvalidManifestAttributeError) Error() string {
	return fmt.Sprintf("invalid manifest attribute name %q", e.Name)
}

// Unwrap returns ErrInvalidManifestAttribute for errors.Is() compatibility.
func (e *InvalidManifestAttributeError) Unwrap() error { return ErrInvalidManifestAttribute }

// Attribute returns the entry point attribute name, applying the default.
func (m ManifestSpec) Attribute() string {
	if m.EntryPointAttribute == "" {
		return DefaultEntryPointAttribute
	}
	return m.EntryPointAttribute
}

// Validate requires an entry point and well-formed attribute names.
func (m ManifestSpec) Validate() error {
	if strings.TrimSpace(m.EntryPoint) == "" {
		return ErrMissingEntryPoint
	}
	if strings.ContainsAny(m.EntryPoint, "\r\n") {
		return fmt.Errorf("entry point %q: %w", m.EntryPoint, ErrInvalidManifestAttribute)
	}
	if !ValidAttributeName(m.Attribute()) {
		return &InvalidManifestAttributeError{Name: m.Attribute()}
	}
	for name, value := range m.Attributes {
		if !ValidAttributeName(name) {
			return &InvalidManifestAttributeError{Name: name}
		}
		if strings.ContainsAny(value, "\r\n") {
			return fmt.Errorf("attribute %s: %w", name, ErrInvalidManifestAttribute)
		}
	}
	return nil
}

// ValidAttributeName reports whether name is a legal manifest header name:
// 1-70 characters of alphanumerics, '-' or '_', starting with an alphanumeric.
func ValidAttributeName(name string) bool {
	if name == "" || len(name) > 70 {
		return false
	}
	for i, r := range name {
		alnum := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
		if !alnum && (i == 0 || r != '-' && r != '_') {
			return false
		}
	}
	return true
}
