// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/fatpack/fatpack/pkg/depspec"
)

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Close() error { return nil }
func (failingSource) Entries() ([]Entry, error) {
	return []Entry{{
		Path:   "broken.class",
		Origin: "broken",
		open:   func() (io.ReadCloser, error) { return nil, errors.New("disk on fire") },
	}}, nil
}

func testOptions(output string) Options {
	return Options{
		Output:    output,
		Manifest:  depspec.ManifestSpec{EntryPoint: "app.Main"},
		Policy:    FirstWins,
		CreatedBy: "fatpack",
	}
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()

	rc, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader() failed: %v", err)
	}
	defer func() { _ = rc.Close() }()

	out := make(map[string]string)
	for _, f := range rc.File {
		r, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", f.Name, err)
		}
		data, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			t.Fatalf("ReadAll(%s) failed: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAssemble_Scenario(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "libs", "plugin-1.0-standalone.jar")
	report, err := Assemble(context.Background(), testOptions(out),
		[]Source{mem("build", "y")},
		[]Source{mem("A", "x")})
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}

	inv, err := Inspect(out)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	want := []string{ManifestDir, ManifestPath, "x", "y"}
	if !slices.Equal(inv.Entries, want) {
		t.Errorf("entries = %v, want %v", inv.Entries, want)
	}
	if !inv.ManifestFirst {
		t.Error("manifest must be the first entries")
	}
	if ep, _ := inv.EntryPoint("Main-Class"); ep != "app.Main" {
		t.Errorf("Main-Class = %q, want app.Main", ep)
	}
	if report.Entries != 4 || report.SHA256 != inv.SHA256 || report.Size != inv.Size {
		t.Errorf("report = %+v, inventory = %+v", report, inv)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("archive mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	run := func(name string) []byte {
		out := filepath.Join(dir, name)
		_, err := Assemble(context.Background(), testOptions(out),
			[]Source{mem("build", "app/Main.class", "app/")},
			[]Source{mem("lib:a:1", "lib/A.class", "shared"), mem("lib:b:1", "shared", "lib/B.class")})
		if err != nil {
			t.Fatalf("Assemble() failed: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("ReadFile() failed: %v", err)
		}
		return data
	}

	first := run("first.jar")
	second := run("second.jar")
	if !bytes.Equal(first, second) {
		t.Error("two runs with identical inputs produced different archives")
	}
}

func TestAssemble_BuildOutputPriority(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.jar")
	build := NewMemorySource("build", map[string][]byte{"config.properties": []byte("mine")})
	dep := NewMemorySource("lib:a:1", map[string][]byte{"config.properties": []byte("theirs")})

	report, err := Assemble(context.Background(), testOptions(out), []Source{build}, []Source{dep})
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if got := readZip(t, out)["config.properties"]; got != "mine" {
		t.Errorf("config.properties = %q, want build output content", got)
	}
	if len(report.Overridden) != 1 {
		t.Errorf("Overridden = %v", report.Overridden)
	}
}

func TestAssemble_ErrorPolicyWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts := testOptions(filepath.Join(dir, "out.jar"))
	opts.Policy = ErrorOnConflict

	_, err := Assemble(context.Background(), opts, nil,
		[]Source{mem("lib:a:1", "dup.class"), mem("lib:b:1", "dup.class")})
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("Assemble() error = %v, want ErrPathConflict", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("output directory should be empty, found %v", names)
	}
}

func TestAssemble_FirstWinsKeepsFirstListed(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.jar")
	a := NewMemorySource("lib:a:1", map[string][]byte{"dup.class": []byte("a")})
	b := NewMemorySource("lib:b:1", map[string][]byte{"dup.class": []byte("b")})

	if _, err := Assemble(context.Background(), testOptions(out), nil, []Source{a, b}); err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if got := readZip(t, out)["dup.class"]; got != "a" {
		t.Errorf("dup.class = %q, want content of first-listed source", got)
	}
}

func TestAssemble_MissingEntryPointFailsBeforeIO(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts := testOptions(filepath.Join(dir, "nested", "out.jar"))
	opts.Manifest.EntryPoint = ""

	_, err := Assemble(context.Background(), opts, []Source{failingSource{}}, nil)
	if !errors.Is(err, ErrConfiguration) || !errors.Is(err, depspec.ErrMissingEntryPoint) {
		t.Fatalf("Assemble() error = %v, want configuration error for missing entry point", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "nested")); !os.IsNotExist(statErr) {
		t.Errorf("output directory was created before validation: %v", statErr)
	}
}

func TestAssemble_ReadFailureRemovesPartialArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Assemble(context.Background(), testOptions(filepath.Join(dir, "out.jar")), []Source{failingSource{}}, nil)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, ErrIO) {
		t.Fatalf("Assemble() error = %v, want IOError", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("partial archive left behind: %v", names)
	}
}

func TestAssemble_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Assemble(ctx, testOptions(filepath.Join(dir, "out.jar")), []Source{mem("build", "a")}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Assemble() error = %v, want context.Canceled", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("output left behind: %v", names)
	}
}

func TestAssemble_DirectoryAndZipSources(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	classes := filepath.Join(root, "classes")
	if err := os.MkdirAll(filepath.Join(classes, "app"), 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(classes, "app", "Main.class"), []byte("main"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	jar := filepath.Join(root, "lib.jar")
	f, err := os.Create(jar)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"META-INF/MANIFEST.MF", "lib/", "lib/Util.class"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create() failed: %v", err)
		}
		if _, err := w.Write([]byte(name)); err != nil && name[len(name)-1] != '/' {
			t.Fatalf("zip Write() failed: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	build, err := OpenSource("build", classes)
	if err != nil {
		t.Fatalf("OpenSource(dir) failed: %v", err)
	}
	lib, err := OpenSource("lib:util:1", jar)
	if err != nil {
		t.Fatalf("OpenSource(jar) failed: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })

	out := filepath.Join(root, "out.jar")
	if _, err := Assemble(context.Background(), testOptions(out), []Source{build}, []Source{lib}); err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}

	contents := readZip(t, out)
	if contents["app/Main.class"] != "main" || contents["lib/Util.class"] != "lib/Util.class" {
		t.Errorf("unexpected contents: %v", contents)
	}
	if _, ok := contents["app/"]; !ok {
		t.Error("directory entry app/ missing")
	}

	if _, err := OpenSource("missing", filepath.Join(root, "missing.jar")); !errors.Is(err, ErrIO) {
		t.Errorf("OpenSource(missing) error = %v, want ErrIO", err)
	}
}

func TestAssemble_OutputInsideBuildOutput(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	build := filepath.Join(root, "build")
	out := filepath.Join(build, "libs", "app.jar")
	files := map[string]string{
		filepath.Join(build, "classes", "app", "Main.class"): "main",
		out: "previous archive",
		filepath.Join(build, "libs", ".app.jar-123.tmp"): "stale temp",
	}
	for p, content := range files {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll() failed: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
	}

	for run := 1; run <= 2; run++ {
		src, err := OpenSource("build", build)
		if err != nil {
			t.Fatalf("OpenSource() failed: %v", err)
		}
		if _, err := Assemble(context.Background(), testOptions(out), []Source{src}, nil); err != nil {
			t.Fatalf("run %d: Assemble() failed: %v", run, err)
		}

		contents := readZip(t, out)
		if contents["classes/app/Main.class"] != "main" {
			t.Errorf("run %d: build output missing: %v", run, contents)
		}
		for name := range contents {
			if filepath.Ext(name) == ".jar" || filepath.Ext(name) == ".tmp" {
				t.Errorf("run %d: archive packed its own output: %s", run, name)
			}
		}
	}
}
