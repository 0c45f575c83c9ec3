// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/fatpack/fatpack/internal/config"
	"github.com/fatpack/fatpack/pkg/archive"
	"github.com/fatpack/fatpack/pkg/depspec"
	"github.com/fatpack/fatpack/pkg/types"
)

type (
	// Request carries the command line inputs. Empty fields fall back to
	// the project file and then to the user configuration.
	Request struct {
		// ProjectFile defaults to depspec.ProjectFileName in the working directory.
		ProjectFile     string
		Output          string
		EntryPoint      string
		DuplicatePolicy string
		// NoLock ignores an existing lock file and resolves from repositories.
		NoLock bool
	}

	// Project is a loaded project file with overrides applied and every
	// path made absolute.
	Project struct {
		Spec   *depspec.BuildSpec
		Output string
		Policy archive.DuplicatePolicy
		// Dependencies are in declaration order. Paths are absolute and the
		// project-wide excludes are merged into each spec's exclusions.
		Dependencies []depspec.DependencySpec
		BuildOutput  []string
		Repositories []string
		LockPath     string
	}
)

// Load reads the project file and applies req. It does not require an entry
// point; use Project.Validate before assembling. Every failure is an
// *archive.ConfigurationError.
func Load(cfg *config.Config, req Request) (*Project, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	path := req.ProjectFile
	if path == "" {
		path = depspec.ProjectFileName
	}
	spec, err := depspec.Load(path)
	if err != nil {
		return nil, &archive.ConfigurationError{Field: "project file", Err: err}
	}

	if req.EntryPoint != "" {
		spec.Manifest.EntryPoint = req.EntryPoint
	}

	policyName := req.DuplicatePolicy
	if policyName == "" {
		policyName = spec.DuplicatePolicy
	}
	if policyName == "" {
		policyName = cfg.DuplicatePolicy
	}
	policy, err := archive.ParseDuplicatePolicy(policyName)
	if err != nil {
		return nil, &archive.ConfigurationError{Field: "duplicate policy", Err: err}
	}

	output := spec.DefaultOutputPath(cfg.Classifier)
	if req.Output != "" {
		if output, err = filepath.Abs(req.Output); err != nil {
			return nil, &archive.ConfigurationError{Field: "output", Err: err}
		}
	}

	p := &Project{
		Spec:     spec,
		Output:   output,
		Policy:   policy,
		LockPath: spec.ResolvePath(types.FilesystemPath(cfg.LockFile)),
	}
	for _, bo := range spec.BuildOutput {
		p.BuildOutput = append(p.BuildOutput, spec.ResolvePath(bo))
	}
	p.Repositories = slices.Clone(cfg.Repositories)
	for _, repo := range spec.Repositories {
		expanded, err := config.ExpandPath(repo)
		if err != nil {
			return nil, &archive.ConfigurationError{Field: "repositories", Err: err}
		}
		p.Repositories = append(p.Repositories, spec.ResolvePath(types.FilesystemPath(expanded)))
	}
	for _, d := range spec.Dependencies {
		eff := d
		if d.Path != "" {
			eff.Path = types.FilesystemPath(spec.ResolvePath(d.Path))
		}
		eff.Exclusions = append(slices.Clone(d.Exclusions), spec.Excludes...)
		p.Dependencies = append(p.Dependencies, eff)
	}
	return p, nil
}

// Validate runs every check that must pass before archive I/O, including
// the presence of an entry point.
func (p *Project) Validate() error {
	if err := p.Spec.Validate(); err != nil {
		field := "project file"
		if errors.Is(err, depspec.ErrMissingEntryPoint) {
			field = "entry point"
		}
		return &archive.ConfigurationError{Field: field, Err: fmt.Errorf("%s: %w", p.Spec.Name, err)}
	}
	return p.ArchiveOptions().Validate()
}

// ArchiveOptions returns the pkg/archive options for this project.
func (p *Project) ArchiveOptions() archive.Options {
	return archive.Options{
		Output:        p.Output,
		Manifest:      p.Spec.Manifest,
		Policy:        p.Policy,
		EntryExcludes: p.Spec.EntryExcludes,
		CreatedBy:     config.AppName,
	}
}

// Bundled returns the effective BUNDLED declarations in declaration order.
func (p *Project) Bundled() []depspec.DependencySpec { return p.filter(true) }

// Provided returns the effective PROVIDED declarations in declaration order.
func (p *Project) Provided() []depspec.DependencySpec { return p.filter(false) }

func (p *Project) filter(bundled bool) []depspec.DependencySpec {
	var out []depspec.DependencySpec
	for _, d := range p.Dependencies {
		if d.IsBundled() == bundled {
			out = append(out, d)
		}
	}
	return out
}
