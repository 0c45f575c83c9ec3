// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	"fmt"

	"github.com/fatpack/fatpack/pkg/types"
)

// DependencySpec is one declared library.
type DependencySpec struct {
	Coordinate     Coordinate
	Classification Classification
	// Exclusions apply to this dependency's transitive closure.
	Exclusions []ExclusionPattern
	// Path, when set, names a local archive or directory that is the
	// dependency's entire content. No transitive walk happens for it.
	Path types.FilesystemPath
}

// Validate checks the coordinate, classification, exclusions and path.
func (d DependencySpec) Validate() error {
	if err := d.Coordinate.Validate(); err != nil {
		return err
	}
	if err := d.Classification.Validate(); err != nil {
		return fmt.Errorf("%s: %w", d.Coordinate, err)
	}
	for _, ex := range d.Exclusions {
		if err := ex.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Coordinate, err)
		}
	}
	if d.Path != "" {
		if err := d.Path.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Coordinate, err)
		}
	}
	return nil
}

// IsBundled reports whether the dependency's content ships in the archive.
func (d DependencySpec) IsBundled() bool { return d.Classification == Bundled }

// Excludes reports whether c is cut from this dependency's closure.
func (d DependencySpec) Excludes(c Coordinate) bool {
	_, ok := MatchAny(d.Exclusions, c)
	return ok
}

// String returns "group:name:version (CLASSIFICATION)".
func (d DependencySpec) String() string {
	return fmt.Sprintf("%s (%s)", d.Coordinate, d.Classification)
}
