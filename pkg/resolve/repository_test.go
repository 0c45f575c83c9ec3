// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatpack/fatpack/pkg/depspec"
	"github.com/fatpack/fatpack/pkg/types"
)

type testArtifact struct {
	coord     string
	packaging string
	deps      string
	noJar     bool

	// parent, props and managed are raw XML spliced into the POM.
	parent  string
	props   string
	managed string
}

// writeRepo lays out artifacts in Maven repository format under a temp dir.
func writeRepo(t *testing.T, artifacts ...testArtifact) string {
	t.Helper()

	repo := t.TempDir()
	for _, a := range artifacts {
		c := depspec.MustParseCoordinate(a.coord)
		dir := artifactDir(repo, c)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll() failed: %v", err)
		}
		packaging := a.packaging
		if packaging == "" {
			packaging = "jar"
		}
		pom := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<project>
  %s
  <groupId>%s</groupId>
  <artifactId>%s</artifactId>
  <version>%s</version>
  <packaging>%s</packaging>
  <properties><shared.version>9.9</shared.version>%s</properties>
  <dependencyManagement><dependencies>%s</dependencies></dependencyManagement>
  <dependencies>%s</dependencies>
</project>`, a.parent, c.Group, c.Name, c.Version, packaging, a.props, a.managed, a.deps)
		base := filepath.Join(dir, c.Name+"-"+c.Version)
		if err := os.WriteFile(base+".pom", []byte(pom), 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		if !a.noJar && packaging != "pom" {
			writeJar(t, base+".jar", map[string]string{c.Name + "/Marker.class": c.String()})
		}
	}
	return repo
}

func writeJar(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create() failed: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip Write() failed: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
}

func dep(coord string, extra string) string {
	c := depspec.MustParseCoordinate(coord)
	return fmt.Sprintf("<dependency><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version>%s</dependency>",
		c.Group, c.Name, c.Version, extra)
}

func coords(srcs []ResolvedSource) []string {
	out := make([]string, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, s.Coordinate.String())
	}
	return out
}

func bundled(coord string, exclusions ...depspec.ExclusionPattern) depspec.DependencySpec {
	return depspec.DependencySpec{
		Coordinate:     depspec.MustParseCoordinate(coord),
		Classification: depspec.Bundled,
		Exclusions:     exclusions,
	}
}

func TestRepositoryResolver_TransitiveClosure(t *testing.T) {
	t.Parallel()

	repo := writeRepo(t,
		testArtifact{coord: "com.fasterxml.jackson.dataformat:jackson-dataformat-yaml:2.10.5", deps: dep("org.yaml:snakeyaml:1.26", "") +
			dep("com.fasterxml.jackson.core:jackson-databind:2.10.5", "") +
			dep("junit:junit:4.13", "<scope>test</scope>") +
			dep("org.optional:thing:1.0", "<optional>true</optional>")},
		testArtifact{coord: "org.yaml:snakeyaml:1.26"},
		testArtifact{coord: "com.fasterxml.jackson.core:jackson-databind:2.10.5", deps: dep("com.fasterxml.jackson.core:jackson-core:2.10.5", "") +
			dep("org.yaml:snakeyaml:1.99", "")},
		testArtifact{coord: "com.fasterxml.jackson.core:jackson-core:2.10.5"},
	)

	r := NewRepositoryResolver([]string{repo})
	srcs, err := r.Resolve(context.Background(), bundled("com.fasterxml.jackson.dataformat:jackson-dataformat-yaml:2.10.5"))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	want := []string{
		"com.fasterxml.jackson.dataformat:jackson-dataformat-yaml:2.10.5",
		"org.yaml:snakeyaml:1.26",
		"com.fasterxml.jackson.core:jackson-databind:2.10.5",
		"com.fasterxml.jackson.core:jackson-core:2.10.5",
	}
	if got := coords(srcs); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("closure = %v, want %v", got, want)
	}
	if !srcs[0].IsRoot() || srcs[0].Kind != KindArchive {
		t.Errorf("root source = %+v", srcs[0])
	}
	if srcs[3].Depth != 2 || srcs[3].Via.Name != "jackson-databind" {
		t.Errorf("jackson-core depth/via = %d/%s", srcs[3].Depth, srcs[3].Via)
	}
}

func TestRepositoryResolver_Exclusions(t *testing.T) {
	t.Parallel()

	repo := writeRepo(t,
		testArtifact{coord: "app:yaml:1.0", deps: dep("org.yaml:snakeyaml:1.26", "") +
			dep("core:databind:1.0", "<exclusions><exclusion><groupId>core</groupId><artifactId>annotations</artifactId></exclusion></exclusions>")},
		testArtifact{coord: "org.yaml:snakeyaml:1.26"},
		testArtifact{coord: "core:databind:1.0", deps: dep("core:annotations:1.0", "") + dep("core:streams:1.0", "")},
		testArtifact{coord: "core:streams:1.0"},
		// core:annotations is deliberately absent: the POM exclusion must
		// stop the walk before it is looked up.
	)

	r := NewRepositoryResolver([]string{repo})

	srcs, err := r.Resolve(context.Background(), bundled("app:yaml:1.0"))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if got := strings.Join(coords(srcs), ","); got != "app:yaml:1.0,org.yaml:snakeyaml:1.26,core:databind:1.0,core:streams:1.0" {
		t.Errorf("closure = %s", got)
	}

	srcs, err = r.Resolve(context.Background(), bundled("app:yaml:1.0", depspec.ExclusionPattern{Group: "core"}))
	if err != nil {
		t.Fatalf("Resolve() with exclusion failed: %v", err)
	}
	if got := strings.Join(coords(srcs), ","); got != "app:yaml:1.0,org.yaml:snakeyaml:1.26" {
		t.Errorf("closure with group exclusion = %s", got)
	}
}

func TestRepositoryResolver_PropertiesAndBOM(t *testing.T) {
	t.Parallel()

	repo := writeRepo(t,
		testArtifact{coord: "app:plugin:2.0", deps: dep("org.apache.jmeter:bom:5.4.1", "") +
			"<dependency><groupId>${project.groupId}</groupId><artifactId>util</artifactId><version>${project.version}</version></dependency>" +
			"<dependency><groupId>lib</groupId><artifactId>shared</artifactId><version>${shared.version}</version></dependency>" +
			"<dependency><groupId>lib</groupId><artifactId>managed</artifactId></dependency>"},
		testArtifact{coord: "org.apache.jmeter:bom:5.4.1", packaging: "pom", deps: dep("lib:from-bom:1.0", "")},
		testArtifact{coord: "app:util:2.0"},
		testArtifact{coord: "lib:shared:9.9"},
		testArtifact{coord: "lib:from-bom:1.0"},
	)

	r := NewRepositoryResolver([]string{repo})
	srcs, err := r.Resolve(context.Background(), bundled("app:plugin:2.0"))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	want := "app:plugin:2.0,app:util:2.0,lib:shared:9.9,lib:from-bom:1.0"
	if got := strings.Join(coords(srcs), ","); got != want {
		t.Errorf("closure = %s, want %s", got, want)
	}
}

func TestRepositoryResolver_ParentPOM(t *testing.T) {
	t.Parallel()

	repo := writeRepo(t,
		testArtifact{
			coord:     "org.example:parent:3.0",
			packaging: "pom",
			props:     "<netty.version>4.1.100</netty.version>",
			managed: dep("io.netty:netty-buffer:4.1.99", "") +
				dep("org.slf4j:slf4j-api:2.0.9", "") +
				dep("junit:junit:4.13", "<scope>test</scope>"),
			deps: dep("org.example:common:3.0", ""),
		},
		testArtifact{
			coord:   "org.example:client:3.0",
			parent:  "<parent><groupId>org.example</groupId><artifactId>parent</artifactId><version>3.0</version></parent>",
			props:   "<netty.version>4.1.101</netty.version>",
			managed: dep("io.netty:netty-buffer:4.1.101", ""),
			deps: "<dependency><groupId>io.netty</groupId><artifactId>netty-handler</artifactId><version>${netty.version}</version></dependency>" +
				"<dependency><groupId>io.netty</groupId><artifactId>netty-buffer</artifactId></dependency>" +
				"<dependency><groupId>org.slf4j</groupId><artifactId>slf4j-api</artifactId></dependency>" +
				"<dependency><groupId>junit</groupId><artifactId>junit</artifactId></dependency>",
		},
		testArtifact{coord: "io.netty:netty-handler:4.1.101"},
		testArtifact{coord: "io.netty:netty-buffer:4.1.101"},
		testArtifact{coord: "org.slf4j:slf4j-api:2.0.9"},
		testArtifact{coord: "org.example:common:3.0"},
	)

	r := NewRepositoryResolver([]string{repo})
	srcs, err := r.Resolve(context.Background(), bundled("org.example:client:3.0"))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	want := "org.example:client:3.0,io.netty:netty-handler:4.1.101,io.netty:netty-buffer:4.1.101," +
		"org.slf4j:slf4j-api:2.0.9,org.example:common:3.0"
	if got := strings.Join(coords(srcs), ","); got != want {
		t.Errorf("closure = %s, want %s", got, want)
	}
}

func TestRepositoryResolver_MissingParentPOM(t *testing.T) {
	t.Parallel()

	repo := writeRepo(t,
		testArtifact{
			coord:  "org.example:client:3.0",
			parent: "<parent><groupId>org.example</groupId><artifactId>parent</artifactId><version>3.0</version></parent>",
			deps: dep("org.example:common:3.0", "") +
				"<dependency><groupId>io.netty</groupId><artifactId>netty-buffer</artifactId></dependency>",
		},
		testArtifact{coord: "org.example:common:3.0"},
	)

	r := NewRepositoryResolver([]string{repo})
	srcs, err := r.Resolve(context.Background(), bundled("org.example:client:3.0"))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if got := strings.Join(coords(srcs), ","); got != "org.example:client:3.0,org.example:common:3.0" {
		t.Errorf("closure = %s", got)
	}
}

func TestRepositoryResolver_Unresolved(t *testing.T) {
	t.Parallel()

	repo := writeRepo(t,
		testArtifact{coord: "app:broken:1.0", deps: dep("lib:missing:1.0", "")},
	)
	r := NewRepositoryResolver([]string{t.TempDir(), repo})

	_, err := r.Resolve(context.Background(), bundled("app:absent:1.0"))
	var uErr *UnresolvedDependencyError
	if !errors.As(err, &uErr) || uErr.Coordinate.Name != "absent" {
		t.Fatalf("Resolve(absent) error = %v, want UnresolvedDependencyError for absent", err)
	}

	_, err = r.Resolve(context.Background(), bundled("app:broken:1.0"))
	if !errors.Is(err, ErrUnresolvedDependency) {
		t.Fatalf("Resolve(broken) error = %v, want ErrUnresolvedDependency", err)
	}
	if !strings.Contains(err.Error(), "required by app:broken:1.0") {
		t.Errorf("error should name the requiring artifact, got: %v", err)
	}

	_, err = NewRepositoryResolver(nil).Resolve(context.Background(), bundled("app:broken:1.0"))
	if !errors.Is(err, ErrUnresolvedDependency) {
		t.Errorf("Resolve() without repositories error = %v", err)
	}
}

func TestRepositoryResolver_RepositoryOrder(t *testing.T) {
	t.Parallel()

	first := writeRepo(t, testArtifact{coord: "lib:a:1.0"})
	second := writeRepo(t, testArtifact{coord: "lib:a:1.0"})

	srcs, err := NewRepositoryResolver([]string{first, second}).Resolve(context.Background(), bundled("lib:a:1.0"))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if !strings.HasPrefix(srcs[0].Path, first) {
		t.Errorf("resolved from %s, want first repository %s", srcs[0].Path, first)
	}
}

func TestResolveLocalPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	spec := bundled("local:classes:0")
	spec.Path = "does-not-exist"

	_, err := NewRepositoryResolver(nil).Resolve(context.Background(), spec)
	if !errors.Is(err, ErrUnresolvedDependency) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Resolve() error = %v, want unresolved + not exist", err)
	}

	spec.Path = types.FilesystemPath(dir)
	srcs, err := NewRepositoryResolver(nil).Resolve(context.Background(), spec)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if len(srcs) != 1 || srcs[0].Kind != KindDirectory || srcs[0].Path != dir {
		t.Errorf("Resolve() = %+v", srcs)
	}
}

func TestMapResolver(t *testing.T) {
	t.Parallel()

	m := MapResolver{
		"a:a:1": {{Coordinate: depspec.MustParseCoordinate("a:a:1"), Path: "/a", Kind: KindDirectory}},
	}
	srcs, err := m.Resolve(context.Background(), bundled("a:a:1"))
	if err != nil || len(srcs) != 1 {
		t.Fatalf("Resolve() = %v, %v", srcs, err)
	}
	srcs[0].Path = "/changed"
	if m["a:a:1"][0].Path != "/a" {
		t.Error("Resolve() must return a copy of the table entry")
	}
	if _, err := m.Resolve(context.Background(), bundled("b:b:1")); !errors.Is(err, ErrUnresolvedDependency) {
		t.Errorf("Resolve(unknown) error = %v", err)
	}
}
