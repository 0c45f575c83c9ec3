// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/fatpack/fatpack/pkg/depspec"
	"github.com/fatpack/fatpack/pkg/resolve"
)

const (
	// DecisionBundle ships the source in the archive.
	DecisionBundle Decision = "bundle"
	// DecisionExcluded drops a source matched by an exclusion pattern.
	DecisionExcluded Decision = "excluded"
	// DecisionProvided drops a source the host application supplies.
	DecisionProvided Decision = "provided"
	// DecisionDuplicate drops a library already contributed by an earlier
	// BUNDLED declaration.
	DecisionDuplicate Decision = "duplicate"
)

type (
	// Decision tells whether a resolved source ships in the archive.
	Decision string

	// SourcePlan is one resolved source and what happens to it.
	SourcePlan struct {
		Source   resolve.ResolvedSource
		Decision Decision
		// Reason explains a drop, e.g. the matching exclusion pattern.
		Reason string
	}

	// Closure is the planned closure of one BUNDLED declaration.
	Closure struct {
		Spec    depspec.DependencySpec
		Sources []SourcePlan
	}

	// Resolution is the outcome of resolving a project's declarations.
	Resolution struct {
		// Closures follow BUNDLED declaration order.
		Closures []Closure
		// HostProvided holds the sorted library keys (group:name) supplied
		// by the host.
		HostProvided []string
		// UnresolvedProvided lists PROVIDED declarations whose closure could
		// not be resolved. Only their own key joins HostProvided.
		UnresolvedProvided []depspec.Coordinate
	}
)

// Bundled returns the sources that ship, in declaration then walk order.
func (r *Resolution) Bundled() []resolve.ResolvedSource {
	var out []resolve.ResolvedSource
	for _, c := range r.Closures {
		for _, sp := range c.Sources {
			if sp.Decision == DecisionBundle {
				out = append(out, sp.Source)
			}
		}
	}
	return out
}

// Dropped counts sources that were resolved but do not ship.
func (r *Resolution) Dropped() int {
	n := 0
	for _, c := range r.Closures {
		for _, sp := range c.Sources {
			if sp.Decision != DecisionBundle {
				n++
			}
		}
	}
	return n
}

// resolveProject computes the host-provided set best-effort, then resolves
// every BUNDLED declaration and decides per source. A PROVIDED key always
// wins over a BUNDLED closure.
func resolveProject(ctx context.Context, p *Project, r resolve.Resolver) (*Resolution, error) {
	res := &Resolution{}

	host := make(map[string]bool)
	for _, spec := range p.Provided() {
		host[spec.Coordinate.Key()] = true
		srcs, err := r.Resolve(ctx, spec)
		if err != nil {
			if !errors.Is(err, resolve.ErrUnresolvedDependency) {
				return nil, err
			}
			slog.Warn("provided dependency could not be resolved; excluding it by name only",
				"dependency", spec.Coordinate.String(), "error", err)
			res.UnresolvedProvided = append(res.UnresolvedProvided, spec.Coordinate)
			continue
		}
		for _, src := range srcs {
			host[src.Coordinate.Key()] = true
		}
	}
	for key := range host {
		res.HostProvided = append(res.HostProvided, key)
	}
	slices.Sort(res.HostProvided)

	bundledBy := make(map[string]depspec.Coordinate)
	for _, spec := range p.Bundled() {
		srcs, err := r.Resolve(ctx, spec)
		if err != nil {
			return nil, err
		}
		closure := Closure{Spec: spec}
		for _, src := range srcs {
			sp := SourcePlan{Source: src, Decision: DecisionBundle}
			key := src.Coordinate.Key()
			if pat, ok := depspec.MatchAny(p.Spec.Excludes, src.Coordinate); ok {
				sp.Decision, sp.Reason = DecisionExcluded, "project exclude "+pat.String()
			} else if pat, ok := depspec.MatchAny(spec.Exclusions, src.Coordinate); ok {
				sp.Decision, sp.Reason = DecisionExcluded, "excluded by "+spec.Coordinate.Key()+" ("+pat.String()+")"
			} else if host[key] {
				sp.Decision, sp.Reason = DecisionProvided, "provided by host"
				if src.IsRoot() {
					slog.Warn("bundled dependency is supplied by the host and will not be packed",
						"dependency", spec.Coordinate.String())
				}
			} else if prev, ok := bundledBy[key]; ok {
				sp.Decision, sp.Reason = DecisionDuplicate, "already bundled via "+prev.String()
			} else {
				bundledBy[key] = spec.Coordinate
			}
			if sp.Decision != DecisionBundle {
				slog.Debug("dropping resolved source", "source", src.String(), "decision", sp.Decision, "reason", sp.Reason)
			}
			closure.Sources = append(closure.Sources, sp)
		}
		res.Closures = append(res.Closures, closure)
	}
	return res, nil
}
