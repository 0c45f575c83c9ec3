// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/fatpack/fatpack/internal/config"
	"github.com/fatpack/fatpack/internal/testutil"
	"github.com/fatpack/fatpack/pkg/archive"
	"github.com/fatpack/fatpack/pkg/depspec"
	"github.com/fatpack/fatpack/pkg/resolve"
)

type countingResolver struct {
	resolve.Resolver
	calls atomic.Int32
}

func (c *countingResolver) Resolve(ctx context.Context, spec depspec.DependencySpec) ([]resolve.ResolvedSource, error) {
	c.calls.Add(1)
	return c.Resolver.Resolve(ctx, spec)
}

type fixture struct {
	dir      string
	resolver resolve.MapResolver
}

var (
	coordA = depspec.MustParseCoordinate("com.a:a:1.0")
	coordB = depspec.MustParseCoordinate("com.b:b:1.0")
	coordC = depspec.MustParseCoordinate("com.c:c:1.0")
)

// newFixture lays out build output y.class and three library directories.
// A depends on B and C; B depends on nothing.
func newFixture(t *testing.T, project string) *fixture {
	t.Helper()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		depspec.ProjectFileName: project,
		"build/classes/y.class": "y",
		"libs/a/x.class":        "x",
		"libs/b/b.class":        "b",
		"libs/c/c.class":        "c",
	})

	lib := func(c depspec.Coordinate, name string, depth int, via depspec.Coordinate) resolve.ResolvedSource {
		return resolve.ResolvedSource{
			Coordinate: c,
			Path:       filepath.Join(dir, "libs", name),
			Kind:       resolve.KindDirectory,
			Depth:      depth,
			Via:        via,
		}
	}
	return &fixture{
		dir: dir,
		resolver: resolve.MapResolver{
			coordA.String(): {lib(coordA, "a", 0, depspec.Coordinate{}), lib(coordB, "b", 1, coordA), lib(coordC, "c", 1, coordA)},
			coordB.String(): {lib(coordB, "b", 0, depspec.Coordinate{})},
			coordC.String(): {lib(coordC, "c", 0, depspec.Coordinate{})},
		},
	}
}

func (f *fixture) request() Request {
	return Request{ProjectFile: filepath.Join(f.dir, depspec.ProjectFileName)}
}

func (f *fixture) entries(t *testing.T, output string) []string {
	t.Helper()
	inv, err := archive.Inspect(output)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if !inv.ManifestFirst {
		t.Errorf("manifest is not the first entry: %v", inv.Entries)
	}
	return inv.Entries
}

const scenarioProject = `
name:    "plugin"
version: "1.0.0"
build_output: ["build/classes"]
manifest: entry_point: "app.Main"
dependencies: [
	{id: "com.a:a:1.0", classification: "bundled", exclusions: [{group: "com.c"}]},
	{id: "com.b:b:1.0", classification: "provided"},
]
`

func TestAssemble_Scenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenarioProject)
	svc := NewService(nil, WithResolver(f.resolver))

	result, err := svc.Assemble(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}

	wantOutput := filepath.Join(f.dir, "build", "libs", "plugin-1.0.0-standalone.jar")
	if result.Report.Output != wantOutput {
		t.Errorf("Output = %q, want %q", result.Report.Output, wantOutput)
	}

	got := f.entries(t, result.Report.Output)
	want := []string{archive.ManifestDir, archive.ManifestPath, "x.class", "y.class"}
	if !slices.Equal(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}

	inv, err := archive.Inspect(result.Report.Output)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if ep, ok := inv.EntryPoint(depspec.DefaultEntryPointAttribute); !ok || ep != "app.Main" {
		t.Errorf("entry point = %q, %v; want app.Main", ep, ok)
	}
}

func TestAssemble_ExclusionDominance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenarioProject)
	result, err := NewService(nil, WithResolver(f.resolver)).Assemble(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}

	if len(result.Resolution.Closures) != 1 {
		t.Fatalf("Closures = %+v, want one", result.Resolution.Closures)
	}
	decisions := make(map[string]Decision)
	for _, sp := range result.Resolution.Closures[0].Sources {
		decisions[sp.Source.Coordinate.Key()] = sp.Decision
	}
	if decisions[coordB.Key()] != DecisionProvided {
		t.Errorf("B decision = %q, want %q", decisions[coordB.Key()], DecisionProvided)
	}
	if decisions[coordC.Key()] != DecisionExcluded {
		t.Errorf("C decision = %q, want %q", decisions[coordC.Key()], DecisionExcluded)
	}
	if decisions[coordA.Key()] != DecisionBundle {
		t.Errorf("A decision = %q, want %q", decisions[coordA.Key()], DecisionBundle)
	}
	if !slices.Contains(result.Resolution.HostProvided, coordB.Key()) {
		t.Errorf("HostProvided = %v, want it to contain %s", result.Resolution.HostProvided, coordB.Key())
	}
	if slices.Contains(f.entries(t, result.Report.Output), "b.class") {
		t.Error("provided content leaked into the archive")
	}
}

func TestAssemble_ProjectExcludeAndDuplicates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
build_output: ["build/classes"]
manifest: entry_point: "app.Main"
excludes: [{group: "com.b"}]
dependencies: [
	{id: "com.a:a:1.0"},
	{id: "com.c:c:1.0"},
]
`)
	result, err := NewService(nil, WithResolver(f.resolver)).Assemble(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}

	second := result.Resolution.Closures[1]
	if second.Sources[0].Decision != DecisionDuplicate {
		t.Errorf("C declared after A's closure: decision = %q, want %q", second.Sources[0].Decision, DecisionDuplicate)
	}
	got := f.entries(t, result.Report.Output)
	want := []string{archive.ManifestDir, archive.ManifestPath, "c.class", "x.class", "y.class"}
	if !slices.Equal(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	if result.Resolution.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", result.Resolution.Dropped())
	}
}

func TestAssemble_MissingEntryPointFailsBeforeResolution(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
dependencies: [{id: "com.a:a:1.0"}]
`)
	counting := &countingResolver{Resolver: f.resolver}
	_, err := NewService(nil, WithResolver(counting)).Assemble(context.Background(), f.request())

	if !errors.Is(err, archive.ErrConfiguration) || !errors.Is(err, depspec.ErrMissingEntryPoint) {
		t.Fatalf("expected a configuration error for the missing entry point, got %v", err)
	}
	if counting.calls.Load() != 0 {
		t.Errorf("resolver called %d times before validation failed", counting.calls.Load())
	}
	if _, statErr := os.Stat(filepath.Join(f.dir, "build", "libs")); !os.IsNotExist(statErr) {
		t.Errorf("output directory was created: %v", statErr)
	}
}

func TestAssemble_EntryPointFromRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
build_output: ["build/classes"]
`)
	req := f.request()
	req.EntryPoint = "cli.Main"
	req.Output = filepath.Join(t.TempDir(), "out.jar")

	result, err := NewService(nil, WithResolver(f.resolver)).Assemble(context.Background(), req)
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if result.Report.Output != req.Output {
		t.Errorf("Output = %q, want %q", result.Report.Output, req.Output)
	}
	inv, err := archive.Inspect(req.Output)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if ep, _ := inv.EntryPoint(depspec.DefaultEntryPointAttribute); ep != "cli.Main" {
		t.Errorf("entry point = %q, want cli.Main", ep)
	}
}

func TestAssemble_UnresolvedBundled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
manifest: entry_point: "app.Main"
dependencies: [{id: "com.z:z:9"}]
`)
	_, err := NewService(nil, WithResolver(f.resolver)).Assemble(context.Background(), f.request())

	var unresolved *resolve.UnresolvedDependencyError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected *resolve.UnresolvedDependencyError, got %v", err)
	}
	if unresolved.Coordinate.Key() != "com.z:z" {
		t.Errorf("Coordinate = %s, want com.z:z:9", unresolved.Coordinate)
	}
	if _, statErr := os.Stat(filepath.Join(f.dir, "build", "libs")); !os.IsNotExist(statErr) {
		t.Errorf("output directory was created: %v", statErr)
	}
}

func TestAssemble_UnresolvedProvidedExcludesByName(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
manifest: entry_point: "app.Main"
dependencies: [
	{id: "com.a:a:1.0"},
	{id: "com.c:c:2.0", classification: "provided"},
]
`)
	result, err := NewService(nil, WithResolver(f.resolver)).Assemble(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if len(result.Resolution.UnresolvedProvided) != 1 || result.Resolution.UnresolvedProvided[0].Version != "2.0" {
		t.Errorf("UnresolvedProvided = %v, want [com.c:c:2.0]", result.Resolution.UnresolvedProvided)
	}
	if slices.Contains(f.entries(t, result.Report.Output), "c.class") {
		t.Error("content of an unresolved provided library was bundled")
	}
}

func TestAssemble_PolicyPrecedence(t *testing.T) {
	t.Parallel()

	// a and c both write x.class.
	conflicting := func(t *testing.T) *fixture {
		f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
manifest: entry_point: "app.Main"
duplicate_policy: "first-wins"
dependencies: [
	{id: "com.a:a:1.0", exclusions: [{group: "com.c"}]},
	{id: "com.c:c:1.0"},
]
`)
		testutil.WriteFile(t, f.dir, "libs/c/x.class", "x from c")
		return f
	}

	t.Run("project file", func(t *testing.T) {
		t.Parallel()
		f := conflicting(t)
		cfg := config.DefaultConfig()
		cfg.DuplicatePolicy = "error"
		result, err := NewService(cfg, WithResolver(f.resolver)).Assemble(context.Background(), f.request())
		if err != nil {
			t.Fatalf("project first-wins should beat config error policy: %v", err)
		}
		if len(result.Report.Duplicates) != 1 || result.Report.Duplicates[0].Winner != coordA.String() {
			t.Errorf("Duplicates = %+v, want x.class kept from %s", result.Report.Duplicates, coordA)
		}
	})

	t.Run("request", func(t *testing.T) {
		t.Parallel()
		f := conflicting(t)
		req := f.request()
		req.DuplicatePolicy = "error"
		_, err := NewService(nil, WithResolver(f.resolver)).Assemble(context.Background(), req)
		var conflict *archive.PathConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected *archive.PathConflictError, got %v", err)
		}
		if conflict.Path != "x.class" {
			t.Errorf("conflict path = %q, want x.class", conflict.Path)
		}
		if _, statErr := os.Stat(filepath.Join(f.dir, "build", "libs", "plugin-1.0.0-standalone.jar")); !os.IsNotExist(statErr) {
			t.Errorf("archive exists after a conflict: %v", statErr)
		}
	})
}

func TestAssemble_LocalPathDependency(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
manifest: entry_point: "app.Main"
dependencies: [{id: "local:d:0", path: "vendor/d"}]
`)
	testutil.WriteFile(t, f.dir, "vendor/d/d.class", "d")

	result, err := NewService(nil, WithResolver(resolve.MapResolver{})).Assemble(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if !slices.Contains(f.entries(t, result.Report.Output), "d.class") {
		t.Error("local path dependency missing from the archive")
	}
}

func TestResolve_WritesLockUsedByAssemble(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenarioProject)

	resolved, err := NewService(nil, WithResolver(f.resolver)).Resolve(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	lockPath := filepath.Join(f.dir, resolve.LockFileName)
	if resolved.Project.LockPath != lockPath {
		t.Errorf("LockPath = %q, want %q", resolved.Project.LockPath, lockPath)
	}
	if len(resolved.Lock.Dependencies) != 2 {
		t.Errorf("locked %d dependencies, want 2", len(resolved.Lock.Dependencies))
	}

	// No injected resolver: the lock file next to the project is used.
	result, err := NewService(nil).Assemble(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Assemble() from lock failed: %v", err)
	}
	if !result.Locked {
		t.Error("expected the lock file to be used")
	}
	want := []string{archive.ManifestDir, archive.ManifestPath, "x.class", "y.class"}
	if got := f.entries(t, result.Report.Output); !slices.Equal(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
}

func TestAssemble_InvalidLockFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenarioProject)
	testutil.WriteFile(t, f.dir, resolve.LockFileName, "version = [")

	_, err := NewService(nil).Assemble(context.Background(), f.request())
	if !errors.Is(err, resolve.ErrInvalidLockFile) || !errors.Is(err, archive.ErrConfiguration) {
		t.Fatalf("expected an invalid lock file configuration error, got %v", err)
	}
}

func TestLoad_MalformedProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `name: "plugin"`)
	_, err := Load(nil, f.request())
	if !errors.Is(err, archive.ErrConfiguration) || !errors.Is(err, depspec.ErrInvalidBuildSpec) {
		t.Fatalf("expected a configuration error wrapping ErrInvalidBuildSpec, got %v", err)
	}
}

func TestLoad_RepositoriesAndExclusions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
name:    "plugin"
version: "1.0.0"
repositories: ["repo"]
excludes: [{group: "org.slf4j"}]
dependencies: [{id: "com.a:a:1.0", exclusions: [{group: "com.c"}]}]
`)
	cfg := config.DefaultConfig()
	cfg.Repositories = []string{"/srv/m2"}

	p, err := Load(cfg, f.request())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	wantRepos := []string{"/srv/m2", filepath.Join(f.dir, "repo")}
	if !slices.Equal(p.Repositories, wantRepos) {
		t.Errorf("Repositories = %v, want %v", p.Repositories, wantRepos)
	}
	excl := p.Dependencies[0].Exclusions
	if len(excl) != 2 || excl[0].Group != "com.c" || excl[1].Group != "org.slf4j" {
		t.Errorf("effective exclusions = %v, want [com.c org.slf4j]", excl)
	}
	if p.Policy != archive.FirstWins {
		t.Errorf("Policy = %q, want default first-wins", p.Policy)
	}
}
