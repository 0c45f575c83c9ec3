// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatpack/fatpack/pkg/depspec"
)

const (
	// KindArchive is a ZIP/JAR file whose entries are copied.
	KindArchive SourceKind = "archive"
	// KindDirectory is an exploded directory whose files are copied.
	KindDirectory SourceKind = "dir"
)

// ErrUnresolvedDependency is the sentinel error wrapped by UnresolvedDependencyError.
var ErrUnresolvedDependency = errors.New("unresolved dependency")

type (
	// SourceKind tells the archive layer how to read a source.
	SourceKind string

	// ResolvedSource is one member of a dependency's closure.
	ResolvedSource struct {
		Coordinate depspec.Coordinate
		Path       string
		Kind       SourceKind
		// Depth is 0 for the declared dependency and grows by one per hop.
		Depth int
		// Via is the coordinate that pulled this source in; zero for the root.
		Via depspec.Coordinate
		// SHA256 is the hex checksum of archive sources, when known.
		SHA256 string
	}

	// Resolver computes the closure of one declared dependency in walk
	// order. The root comes first unless it is a content-less aggregate
	// (a pom-packaged BOM, for instance). An empty closure is an
	// UnresolvedDependencyError.
	Resolver interface {
		Resolve(ctx context.Context, spec depspec.DependencySpec) ([]ResolvedSource, error)
	}

	// UnresolvedDependencyError is returned when a dependency, or a member of
	// its closure, has no locatable content.
	UnresolvedDependencyError struct {
		Coordinate depspec.Coordinate
		Reason     string
		Err        error
	}
)

// Error implements the error interface.
func (e *UnresolvedDependencyError) Error() string {
	msg := fmt.Sprintf("unresolved dependency %s", e.Coordinate)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrUnresolvedDependency and the underlying cause, if any.
func (e *UnresolvedDependencyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnresolvedDependency}
	}
	return []error{ErrUnresolvedDependency, e.Err}
}

// String returns the coordinate followed by the kind and path.
func (s ResolvedSource) String() string {
	return fmt.Sprintf("%s (%s %s)", s.Coordinate, s.Kind, s.Path)
}

// IsRoot reports whether the source is the declared dependency itself.
func (s ResolvedSource) IsRoot() bool { return s.Depth == 0 }

// sourceAt describes the file or directory at path as a root source.
func sourceAt(c depspec.Coordinate, path string) (ResolvedSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ResolvedSource{}, &UnresolvedDependencyError{Coordinate: c, Reason: "path " + path, Err: err}
	}
	kind := KindArchive
	if info.IsDir() {
		kind = KindDirectory
	} else if !info.Mode().IsRegular() {
		return ResolvedSource{}, &UnresolvedDependencyError{Coordinate: c, Reason: "path " + path + " is not a regular file or directory"}
	}
	return ResolvedSource{Coordinate: c, Path: path, Kind: kind}, nil
}

// resolveLocal handles dependencies pinned to an explicit path.
func resolveLocal(spec depspec.DependencySpec) ([]ResolvedSource, bool, error) {
	if spec.Path == "" {
		return nil, false, nil
	}
	src, err := sourceAt(spec.Coordinate, spec.Path.String())
	if err != nil {
		return nil, true, err
	}
	return []ResolvedSource{src}, true, nil
}
