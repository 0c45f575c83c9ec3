// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultEntryExcludes drops signature files of signed dependency jars; the
// signatures no longer match once entries are merged.
var DefaultEntryExcludes = []string{
	"META-INF/*.SF",
	"META-INF/*.DSA",
	"META-INF/*.RSA",
	"META-INF/*.EC",
}

type (
	// Shadow records an entry that lost to another source.
	Shadow struct {
		Path   string
		Winner string
		Loser  string
	}

	// Plan is the resolved entry set of an archive, excluding the manifest.
	Plan struct {
		// Entries are sorted by path.
		Entries []Entry
		// Overridden lists dependency entries hidden by build output.
		Overridden []Shadow
		// Duplicates lists entries dropped by first-wins, including
		// duplicates between build output sources.
		Duplicates []Shadow
		// Skipped counts entries removed by exclude patterns, plus source
		// copies of the manifest and its directory.
		Skipped int
	}

	// PlanOptions configures BuildPlan.
	PlanOptions struct {
		Policy DuplicatePolicy
		// EntryExcludes are doublestar patterns matched against entry
		// paths, in addition to DefaultEntryExcludes.
		EntryExcludes []string
		// Output is the archive being written. Directory source files at
		// this location, or temporary files left next to it, are skipped
		// so a build output that contains the output directory never packs
		// a previous archive.
		Output string
	}

	planSlot struct {
		entry     Entry
		fromBuild bool
	}

	planner struct {
		opts     PlanOptions
		output   string
		excludes []string
		slots    map[string]*planSlot
		order    []string
		plan     *Plan
	}
)

// ValidateEntryExcludes checks that every pattern is well formed.
func ValidateEntryExcludes(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid entry exclude pattern %q", p)
		}
	}
	return nil
}

// BuildPlan merges buildOutput and deps into one entry set. It fails with a
// PathConflictError under ErrorOnConflict and with an IOError when a source
// cannot be listed. No output is touched.
func BuildPlan(buildOutput, deps []Source, opts PlanOptions) (*Plan, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, &ConfigurationError{Field: "duplicate policy", Err: err}
	}
	if err := ValidateEntryExcludes(opts.EntryExcludes); err != nil {
		return nil, &ConfigurationError{Field: "entry excludes", Err: err}
	}

	p := &planner{
		opts:     opts,
		output:   realPath(opts.Output),
		excludes: append(slices.Clone(DefaultEntryExcludes), opts.EntryExcludes...),
		slots:    make(map[string]*planSlot),
		plan:     &Plan{},
	}
	for _, src := range buildOutput {
		if err := p.add(src, true); err != nil {
			return nil, err
		}
	}
	for _, src := range deps {
		if err := p.add(src, false); err != nil {
			return nil, err
		}
	}

	slices.Sort(p.order)
	p.plan.Entries = make([]Entry, 0, len(p.order))
	for _, path := range p.order {
		p.plan.Entries = append(p.plan.Entries, p.slots[path].entry)
	}
	return p.plan, nil
}

func (p *planner) add(src Source, fromBuild bool) error {
	entries, err := src.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if p.skip(e) {
			p.plan.Skipped++
			continue
		}
		existing, ok := p.slots[e.Path]
		if !ok {
			p.slots[e.Path] = &planSlot{entry: e, fromBuild: fromBuild}
			p.order = append(p.order, e.Path)
			continue
		}
		if e.IsDir() || existing.entry.Origin == e.Origin {
			continue
		}
		shadow := Shadow{Path: e.Path, Winner: existing.entry.Origin, Loser: e.Origin}
		switch {
		case existing.fromBuild && !fromBuild:
			p.plan.Overridden = append(p.plan.Overridden, shadow)
		case fromBuild || p.opts.Policy == FirstWins:
			slog.Debug("dropping duplicate entry", "path", e.Path, "kept", shadow.Winner, "dropped", shadow.Loser)
			p.plan.Duplicates = append(p.plan.Duplicates, shadow)
		default:
			return &PathConflictError{Path: e.Path, First: existing.entry.Origin, Second: e.Origin}
		}
	}
	return nil
}

// skip reports entries that never reach the output: the manifest and its
// directory, which are always written by the assembler, and excluded paths.
func (p *planner) skip(e Entry) bool {
	if e.Path == ManifestDir || strings.EqualFold(e.Path, ManifestPath) {
		return true
	}
	if e.IsDir() {
		return false
	}
	if p.isOutput(e.file) {
		slog.Warn("skipping the output archive found in a source", "source", e.Origin, "path", e.Path)
		return true
	}
	for _, pattern := range p.excludes {
		if ok, _ := doublestar.Match(pattern, e.Path); ok {
			return true
		}
	}
	return false
}

// isOutput reports whether file is the output archive or one of its
// temporary files.
func (p *planner) isOutput(file string) bool {
	if file == "" || p.output == "" {
		return false
	}
	if file == p.output {
		return true
	}
	dir, base := filepath.Split(p.output)
	name := filepath.Base(file)
	return filepath.Dir(file) == filepath.Clean(dir) &&
		strings.HasPrefix(name, "."+base+"-") && strings.HasSuffix(name, ".tmp")
}

// realPath returns p made absolute with symlinks in its directory resolved.
// The file itself need not exist.
func realPath(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}
