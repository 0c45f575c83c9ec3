// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"slices"

	"github.com/fatpack/fatpack/pkg/depspec"
)

// MapResolver resolves coordinates from a fixed table keyed by
// "group:name:version". Closures are returned exactly as stored.
type MapResolver map[string][]ResolvedSource

// Resolve implements Resolver.
func (m MapResolver) Resolve(ctx context.Context, spec depspec.DependencySpec) ([]ResolvedSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if srcs, ok, err := resolveLocal(spec); ok {
		return srcs, err
	}
	srcs, ok := m[spec.Coordinate.String()]
	if !ok || len(srcs) == 0 {
		return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "not in resolver table"}
	}
	return slices.Clone(srcs), nil
}
