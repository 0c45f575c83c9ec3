// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/fatpack/fatpack/pkg/depspec"
)

const (
	// LockFileName is the conventional lock file name next to fatpack.cue.
	LockFileName = "fatpack.lock.toml"
	// LockFileVersion is the only lock format this package reads and writes.
	LockFileVersion = "1"
)

// ErrInvalidLockFile is returned when a lock file cannot be decoded or has an
// unsupported version.
var ErrInvalidLockFile = errors.New("invalid lock file")

type (
	// LockFile pins the closure of every declared dependency.
	LockFile struct {
		Version      string             `toml:"version"`
		Generated    time.Time          `toml:"generated"`
		Dependencies []LockedDependency `toml:"dependencies"`
	}

	// LockedDependency records one declaration and the closure it resolved to.
	// An empty Sources list marks a dependency that could not be resolved
	// when the lock was written.
	LockedDependency struct {
		ID             string         `toml:"id"`
		Classification string         `toml:"classification"`
		Path           string         `toml:"path,omitempty"`
		Exclusions     []string       `toml:"exclusions,omitempty"`
		Sources        []LockedSource `toml:"sources,omitempty"`
	}

	// LockedSource is one pinned closure member.
	LockedSource struct {
		ID     string `toml:"id"`
		Path   string `toml:"path"`
		Kind   string `toml:"kind"`
		Depth  int    `toml:"depth"`
		Via    string `toml:"via,omitempty"`
		SHA256 string `toml:"sha256,omitempty"`
	}

	// LockResolver replays a LockFile. Archive checksums are verified on
	// every Resolve.
	LockResolver struct {
		lock *LockFile
	}
)

// Lock resolves every spec with r and records the closures. Failures to
// resolve PROVIDED specs are recorded as empty closures; failures for
// BUNDLED specs abort.
func Lock(ctx context.Context, r Resolver, specs []depspec.DependencySpec) (*LockFile, error) {
	lock := &LockFile{
		Version:   LockFileVersion,
		Generated: time.Now().UTC().Truncate(time.Second),
	}
	for _, spec := range specs {
		locked := LockedDependency{
			ID:             spec.Coordinate.String(),
			Classification: string(spec.Classification),
			Path:           string(spec.Path),
			Exclusions:     exclusionStrings(spec.Exclusions),
		}
		srcs, err := r.Resolve(ctx, spec)
		if err != nil {
			if spec.IsBundled() || !errors.Is(err, ErrUnresolvedDependency) {
				return nil, err
			}
		}
		for _, src := range srcs {
			sum := src.SHA256
			if sum == "" && src.Kind == KindArchive {
				if sum, err = fileSHA256(src.Path); err != nil {
					return nil, &UnresolvedDependencyError{Coordinate: src.Coordinate, Reason: "checksum", Err: err}
				}
			}
			locked.Sources = append(locked.Sources, LockedSource{
				ID:     src.Coordinate.String(),
				Path:   src.Path,
				Kind:   string(src.Kind),
				Depth:  src.Depth,
				Via:    viaString(src.Via),
				SHA256: sum,
			})
		}
		lock.Dependencies = append(lock.Dependencies, locked)
	}
	return lock, nil
}

// ReadLock loads a lock file.
func ReadLock(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	var lock LockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidLockFile, path, err)
	}
	if lock.Version != LockFileVersion {
		return nil, fmt.Errorf("%w %s: unsupported version %q", ErrInvalidLockFile, path, lock.Version)
	}
	return &lock, nil
}

// WriteLock writes the lock file atomically using a temp file and rename.
func WriteLock(path string, lock *LockFile) error {
	data, err := toml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("failed to encode lock file: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp lock file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename lock file: %w", err)
	}
	committed = true
	return nil
}

// NewLockResolver creates a resolver that replays lock.
func NewLockResolver(lock *LockFile) *LockResolver {
	return &LockResolver{lock: lock}
}

// Resolve implements Resolver.
func (r *LockResolver) Resolve(ctx context.Context, spec depspec.DependencySpec) ([]ResolvedSource, error) {
	locked, ok := r.lock.Lookup(spec.Coordinate)
	if !ok {
		return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "not in lock file; run fatpack resolve"}
	}
	if strings.Join(locked.Exclusions, ",") != strings.Join(exclusionStrings(spec.Exclusions), ",") {
		return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "lock file is stale (exclusions changed); run fatpack resolve"}
	}
	if locked.Path != string(spec.Path) {
		return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "lock file is stale (path changed); run fatpack resolve"}
	}
	if len(locked.Sources) == 0 {
		return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "unresolved when the lock file was written"}
	}

	out := make([]ResolvedSource, 0, len(locked.Sources))
	for _, ls := range locked.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := ls.toSource()
		if err != nil {
			return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "corrupt lock entry", Err: err}
		}
		if src.Kind == KindArchive && ls.SHA256 != "" {
			sum, err := fileSHA256(src.Path)
			if err != nil {
				return nil, &UnresolvedDependencyError{Coordinate: src.Coordinate, Reason: "locked artifact missing", Err: err}
			}
			if sum != ls.SHA256 {
				return nil, &UnresolvedDependencyError{Coordinate: src.Coordinate, Reason: "checksum mismatch for " + src.Path}
			}
		}
		out = append(out, src)
	}
	return out, nil
}

// Lookup returns the locked entry for a coordinate. A coordinate declared
// more than once resolves to its first entry.
func (l *LockFile) Lookup(c depspec.Coordinate) (LockedDependency, bool) {
	for _, d := range l.Dependencies {
		if d.ID == c.String() {
			return d, true
		}
	}
	return LockedDependency{}, false
}

func (ls LockedSource) toSource() (ResolvedSource, error) {
	coord, err := depspec.ParseCoordinate(ls.ID)
	if err != nil {
		return ResolvedSource{}, err
	}
	var via depspec.Coordinate
	if ls.Via != "" {
		if via, err = depspec.ParseCoordinate(ls.Via); err != nil {
			return ResolvedSource{}, err
		}
	}
	kind := SourceKind(ls.Kind)
	if kind != KindArchive && kind != KindDirectory {
		return ResolvedSource{}, fmt.Errorf("unknown source kind %q", ls.Kind)
	}
	return ResolvedSource{
		Coordinate: coord,
		Path:       ls.Path,
		Kind:       kind,
		Depth:      ls.Depth,
		Via:        via,
		SHA256:     ls.SHA256,
	}, nil
}

func exclusionStrings(patterns []depspec.ExclusionPattern) []string {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.String())
	}
	return out
}

func viaString(c depspec.Coordinate) string {
	if c.IsZero() {
		return ""
	}
	return c.String()
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
