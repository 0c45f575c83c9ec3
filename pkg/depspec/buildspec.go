// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatpack/fatpack/pkg/cueutil"
	"github.com/fatpack/fatpack/pkg/types"
)

const (
	// ProjectFileName is the conventional name of the project file.
	ProjectFileName = "fatpack.cue"
	// DefaultClassifier is the file-name qualifier that marks the archive
	// as self-contained.
	DefaultClassifier = "standalone"
	// DefaultOutputDir is where the archive is written when neither the
	// project nor the command line names a path.
	DefaultOutputDir = "build/libs"
	// ArchiveExtension is appended to generated archive names.
	ArchiveExtension = ".jar"
)

//go:embed buildspec_schema.cue
var buildSpecSchema []byte

// ErrInvalidBuildSpec is the sentinel error wrapped by InvalidBuildSpecError.
var ErrInvalidBuildSpec = errors.New("invalid project file")

type (
	// BuildSpec is a parsed fatpack.cue project file.
	BuildSpec struct {
		Name       string
		Version    string
		Classifier string
		OutputDir  string
		// BuildOutput lists the project's compiled output, directories or
		// archives, in priority order.
		BuildOutput []types.FilesystemPath
		Manifest    ManifestSpec
		// DuplicatePolicy is the raw policy name; empty means "use the
		// configured default".
		DuplicatePolicy string
		// Excludes apply to every dependency.
		Excludes      []ExclusionPattern
		EntryExcludes []string
		Repositories  []string
		Dependencies  []DependencySpec
		// Dir is the directory containing the project file. Relative paths
		// in the spec resolve against it.
		Dir string
	}

	// InvalidBuildSpecError wraps every failure to load a project file.
	InvalidBuildSpecError struct {
		Path string
		Err  error
	}

	buildSpecFile struct {
		Name            string           `json:"name"`
		Version         string           `json:"version"`
		Classifier      string           `json:"classifier,omitempty"`
		OutputDir       string           `json:"output_dir,omitempty"`
		BuildOutput     []string         `json:"build_output,omitempty"`
		Manifest        manifestFile     `json:"manifest"`
		DuplicatePolicy string           `json:"duplicate_policy,omitempty"`
		Excludes        []exclusionFile  `json:"excludes,omitempty"`
		EntryExcludes   []string         `json:"entry_excludes,omitempty"`
		Repositories    []string         `json:"repositories,omitempty"`
		Dependencies    []dependencyFile `json:"dependencies,omitempty"`
	}

	manifestFile struct {
		EntryPoint          string            `json:"entry_point,omitempty"`
		EntryPointAttribute string            `json:"entry_point_attribute,omitempty"`
		Attributes          map[string]string `json:"attributes,omitempty"`
	}

	exclusionFile struct {
		Group  string `json:"group"`
		Module string `json:"module,omitempty"`
	}

	dependencyFile struct {
		ID             string          `json:"id"`
		Classification string          `json:"classification"`
		Exclusions     []exclusionFile `json:"exclusions,omitempty"`
		Path           string          `json:"path,omitempty"`
	}
)

// Error implements the error interface.
func (e *InvalidBuildSpecError) Error() string {
	return fmt.Sprintf("invalid project file %s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrInvalidBuildSpec and the underlying cause.
func (e *InvalidBuildSpecError) Unwrap() []error { return []error{ErrInvalidBuildSpec, e.Err} }

// Load reads and validates the project file at path.
func Load(path string) (*BuildSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InvalidBuildSpecError{Path: path, Err: err}
	}
	spec, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &InvalidBuildSpecError{Path: path, Err: err}
	}
	spec.Dir = filepath.Dir(abs)
	return spec, nil
}

// Parse decodes project file content. filename is used in error messages.
// The entry point is not required here because the command line may
// still provide it; see BuildSpec.Validate.
func Parse(data []byte, filename string) (*BuildSpec, error) {
	doc, err := cueutil.Decode[buildSpecFile](buildSpecSchema, data, "#BuildSpec", cueutil.WithFilename(filename), cueutil.WithConcrete(true))
	if err != nil {
		return nil, &InvalidBuildSpecError{Path: filename, Err: err}
	}
	spec, err := doc.toBuildSpec()
	if err != nil {
		return nil, &InvalidBuildSpecError{Path: filename, Err: err}
	}
	if err := spec.validateDependencies(); err != nil {
		return nil, &InvalidBuildSpecError{Path: filename, Err: err}
	}
	return spec, nil
}

func (f *buildSpecFile) toBuildSpec() (*BuildSpec, error) {
	spec := &BuildSpec{
		Name:            f.Name,
		Version:         f.Version,
		Classifier:      f.Classifier,
		OutputDir:       f.OutputDir,
		DuplicatePolicy: f.DuplicatePolicy,
		EntryExcludes:   f.EntryExcludes,
		Repositories:    f.Repositories,
		Manifest: ManifestSpec{
			EntryPoint:          f.Manifest.EntryPoint,
			EntryPointAttribute: f.Manifest.EntryPointAttribute,
			Attributes:          f.Manifest.Attributes,
		},
		Excludes: toExclusions(f.Excludes),
	}
	for _, p := range f.BuildOutput {
		spec.BuildOutput = append(spec.BuildOutput, types.FilesystemPath(p))
	}
	for i, d := range f.Dependencies {
		coord, err := ParseCoordinate(d.ID)
		if err != nil {
			return nil, fmt.Errorf("dependencies[%d]: %w", i, err)
		}
		class, err := ParseClassification(d.Classification)
		if err != nil {
			return nil, fmt.Errorf("dependencies[%d]: %w", i, err)
		}
		spec.Dependencies = append(spec.Dependencies, DependencySpec{
			Coordinate:     coord,
			Classification: class,
			Exclusions:     toExclusions(d.Exclusions),
			Path:           types.FilesystemPath(d.Path),
		})
	}
	return spec, nil
}

func toExclusions(in []exclusionFile) []ExclusionPattern {
	if len(in) == 0 {
		return nil
	}
	out := make([]ExclusionPattern, 0, len(in))
	for _, e := range in {
		out = append(out, ExclusionPattern{Group: e.Group, Module: e.Module})
	}
	return out
}

// validateDependencies rejects malformed declarations and libraries declared
// both PROVIDED and BUNDLED.
func (s *BuildSpec) validateDependencies() error {
	seen := make(map[string]Classification, len(s.Dependencies))
	for i, d := range s.Dependencies {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("dependencies[%d]: %w", i, err)
		}
		if prev, ok := seen[d.Coordinate.Key()]; ok && prev != d.Classification {
			return fmt.Errorf("dependencies[%d]: %s is declared both %s and %s", i, d.Coordinate.Key(), prev, d.Classification)
		}
		seen[d.Coordinate.Key()] = d.Classification
	}
	for _, ex := range s.Excludes {
		if err := ex.Validate(); err != nil {
			return fmt.Errorf("excludes: %w", err)
		}
	}
	return nil
}

// Validate performs the checks that must pass before assembly starts,
// including the presence of an entry point.
func (s *BuildSpec) Validate() error {
	if err := s.validateDependencies(); err != nil {
		return err
	}
	if err := s.Manifest.Validate(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// ArchiveName returns "<name>-<version>-<classifier>.jar", omitting the
// classifier suffix when it is explicitly empty.
func (s *BuildSpec) ArchiveName(classifier string) string {
	if classifier == "" {
		return s.Name + "-" + s.Version + ArchiveExtension
	}
	return s.Name + "-" + s.Version + "-" + classifier + ArchiveExtension
}

// DefaultOutputPath returns where the archive goes when no --output is given.
// fallbackClassifier is used when the project file sets none.
func (s *BuildSpec) DefaultOutputPath(fallbackClassifier string) string {
	classifier := s.Classifier
	if classifier == "" {
		classifier = fallbackClassifier
	}
	dir := s.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	return string(types.FilesystemPath(filepath.Join(dir, s.ArchiveName(classifier))).Resolve(s.Dir))
}

// ResolvePath resolves a project-relative path against the project directory.
func (s *BuildSpec) ResolvePath(p types.FilesystemPath) string {
	return string(p.Resolve(s.Dir))
}
