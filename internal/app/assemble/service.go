// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatpack/fatpack/internal/config"
	"github.com/fatpack/fatpack/pkg/archive"
	"github.com/fatpack/fatpack/pkg/resolve"
)

type (
	// Service runs the validate, resolve and assemble operations.
	Service struct {
		cfg      *config.Config
		resolver resolve.Resolver
	}

	// Option configures a Service.
	Option func(*Service)

	// Result is the outcome of Assemble.
	Result struct {
		Project    *Project
		Resolution *Resolution
		Report     *archive.Report
		// Locked reports whether sources came from the lock file.
		Locked bool
	}

	// ResolveResult is the outcome of Resolve.
	ResolveResult struct {
		Project    *Project
		Resolution *Resolution
		Lock       *resolve.LockFile
	}
)

// WithResolver replaces lock file and repository resolution with r.
func WithResolver(r resolve.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// NewService creates a Service. A nil cfg means the defaults.
func NewService(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate loads and checks the project without resolving anything.
func (s *Service) Validate(req Request) (*Project, error) {
	p, err := Load(s.cfg, req)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Assemble validates the project, resolves its dependencies and writes the
// archive. Configuration problems surface before any resolution or I/O.
func (s *Service) Assemble(ctx context.Context, req Request) (*Result, error) {
	p, err := s.Validate(req)
	if err != nil {
		return nil, err
	}

	r, locked, err := s.resolverFor(p, req.NoLock)
	if err != nil {
		return nil, err
	}
	res, err := resolveProject(ctx, p, r)
	if err != nil {
		return nil, err
	}

	buildOutput, deps, err := openSources(p, res)
	defer closeSources(buildOutput)
	defer closeSources(deps)
	if err != nil {
		return nil, err
	}

	report, err := archive.Assemble(ctx, p.ArchiveOptions(), buildOutput, deps)
	if err != nil {
		return nil, err
	}
	slog.Info("assembled archive",
		"output", report.Output,
		"entries", report.Entries,
		"dependencies", len(deps),
		"locked", locked)

	return &Result{Project: p, Resolution: res, Report: report, Locked: locked}, nil
}

// Resolve resolves every declaration from the repositories, writes the lock
// file and returns the per-source decisions.
func (s *Service) Resolve(ctx context.Context, req Request) (*ResolveResult, error) {
	p, err := Load(s.cfg, req)
	if err != nil {
		return nil, err
	}

	r := s.resolver
	if r == nil {
		r = resolve.NewRepositoryResolver(p.Repositories)
	}
	lock, err := resolve.Lock(ctx, r, p.Dependencies)
	if err != nil {
		return nil, err
	}
	res, err := resolveProject(ctx, p, resolve.NewLockResolver(lock))
	if err != nil {
		return nil, err
	}
	if err := resolve.WriteLock(p.LockPath, lock); err != nil {
		return nil, &archive.IOError{Op: "write lock file", Path: p.LockPath, Err: err}
	}
	slog.Debug("wrote lock file", "path", p.LockPath, "dependencies", len(lock.Dependencies))

	return &ResolveResult{Project: p, Resolution: res, Lock: lock}, nil
}

// resolverFor prefers the lock file next to the project unless disabled.
func (s *Service) resolverFor(p *Project, noLock bool) (resolve.Resolver, bool, error) {
	if s.resolver != nil {
		return s.resolver, false, nil
	}
	if !noLock {
		if _, err := os.Stat(p.LockPath); err == nil {
			lock, err := resolve.ReadLock(p.LockPath)
			if err != nil {
				return nil, false, &archive.ConfigurationError{Field: "lock file", Err: err}
			}
			slog.Debug("using lock file", "path", p.LockPath)
			return resolve.NewLockResolver(lock), true, nil
		}
	}
	slog.Debug("resolving from repositories", "repositories", p.Repositories)
	return resolve.NewRepositoryResolver(p.Repositories), false, nil
}

// openSources opens build output and every bundled source. On error the
// sources opened so far are returned so the caller can close them.
func openSources(p *Project, res *Resolution) (buildOutput, deps []archive.Source, err error) {
	for _, path := range p.BuildOutput {
		name, relErr := filepath.Rel(p.Spec.Dir, path)
		if relErr != nil {
			name = path
		}
		src, err := archive.OpenSource(filepath.ToSlash(name), path)
		if err != nil {
			return buildOutput, deps, err
		}
		buildOutput = append(buildOutput, src)
	}
	for _, rs := range res.Bundled() {
		src, err := archive.OpenSource(rs.Coordinate.String(), rs.Path)
		if err != nil {
			return buildOutput, deps, err
		}
		deps = append(deps, src)
	}
	return buildOutput, deps, nil
}

func closeSources(srcs []archive.Source) {
	for _, src := range srcs {
		if err := src.Close(); err != nil {
			slog.Debug("failed to close source", "source", src.Name(), "error", err)
		}
	}
}
