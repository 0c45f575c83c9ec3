// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fatpack/fatpack/pkg/depspec"
)

// lookupConcurrency bounds parallel filesystem probes per closure level.
const lookupConcurrency = 8

type (
	// RepositoryResolver resolves coordinates against Maven-layout local
	// repositories (<repo>/<group as dirs>/<name>/<version>/<name>-<version>.jar).
	//
	// Transitive dependencies come from the artifact's .pom file. The walk is
	// breadth-first; the nearest declaration of a group:name wins and later
	// versions of it are ignored. Test, provided, system and optional
	// dependencies are not followed. No version mediation beyond
	// nearest-wins is attempted.
	RepositoryResolver struct {
		repositories []string

		mu   sync.Mutex
		poms map[string]*pomProject
	}

	// closureNode is a pending member of a closure walk.
	closureNode struct {
		coord depspec.Coordinate
		depth int
		via   depspec.Coordinate
		// pomExclusions accumulates <exclusions> along the path from the root.
		pomExclusions []pomExclusion
	}

	// located is the result of probing the repositories for one node.
	located struct {
		source ResolvedSource
		// hasContent is false for pom-packaged coordinates such as BOMs.
		hasContent bool
		pom        *pomProject
	}
)

// NewRepositoryResolver creates a resolver over the given repository roots,
// searched in order.
func NewRepositoryResolver(repositories []string) *RepositoryResolver {
	return &RepositoryResolver{
		repositories: slices.Clone(repositories),
		poms:         make(map[string]*pomProject),
	}
}

// Resolve implements Resolver.
func (r *RepositoryResolver) Resolve(ctx context.Context, spec depspec.DependencySpec) ([]ResolvedSource, error) {
	if srcs, ok, err := resolveLocal(spec); ok {
		return srcs, err
	}
	if len(r.repositories) == 0 {
		return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "no repositories configured"}
	}

	var result []ResolvedSource
	visited := map[string]bool{spec.Coordinate.Key(): true}
	level := []closureNode{{coord: spec.Coordinate}}

	for len(level) > 0 {
		found, err := r.locateAll(ctx, level)
		if err != nil {
			return nil, err
		}

		var next []closureNode
		for i, node := range level {
			loc := found[i]
			if loc.hasContent {
				result = append(result, loc.source)
			}
			if loc.pom == nil {
				continue
			}
			for _, dep := range loc.pom.runtimeDependencies() {
				child, ok := r.childNode(spec, node, dep)
				if !ok || visited[child.coord.Key()] {
					continue
				}
				visited[child.coord.Key()] = true
				next = append(next, child)
			}
		}
		level = next
	}

	if len(result) == 0 {
		return nil, &UnresolvedDependencyError{Coordinate: spec.Coordinate, Reason: "artifact has no content"}
	}
	return result, nil
}

// childNode turns a POM dependency into a walk node, or reports false when
// it is excluded or cannot be identified.
func (r *RepositoryResolver) childNode(spec depspec.DependencySpec, parent closureNode, dep pomDependency) (closureNode, bool) {
	if dep.Version == "" || strings.Contains(dep.Version, "${") {
		slog.Warn("skipping dependency without a concrete version",
			"parent", parent.coord, "dependency", dep.GroupID+":"+dep.ArtifactID, "version", dep.Version)
		return closureNode{}, false
	}
	if dep.Classifier != "" || (dep.Type != "" && dep.Type != "jar" && dep.Type != "bundle") {
		slog.Debug("skipping non-jar dependency", "parent", parent.coord,
			"dependency", dep.GroupID+":"+dep.ArtifactID, "type", dep.Type, "classifier", dep.Classifier)
		return closureNode{}, false
	}
	coord := depspec.Coordinate{Group: dep.GroupID, Name: dep.ArtifactID, Version: dep.Version}
	if err := coord.Validate(); err != nil {
		slog.Warn("skipping malformed dependency", "parent", parent.coord, "error", err)
		return closureNode{}, false
	}
	if spec.Excludes(coord) || excludedByPOM(parent.pomExclusions, coord.Group, coord.Name) {
		return closureNode{}, false
	}
	return closureNode{
		coord:         coord,
		depth:         parent.depth + 1,
		via:           parent.coord,
		pomExclusions: append(slices.Clone(parent.pomExclusions), dep.Exclusions...),
	}, true
}

// locateAll probes every node of one level in parallel. Results keep the
// order of nodes.
func (r *RepositoryResolver) locateAll(ctx context.Context, nodes []closureNode) ([]located, error) {
	found := make([]located, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, node := range nodes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loc, err := r.locate(node)
			if err != nil {
				return err
			}
			found[i] = loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func (r *RepositoryResolver) locate(node closureNode) (located, error) {
	c := node.coord
	for _, repo := range r.repositories {
		dir := artifactDir(repo, c)
		jar := filepath.Join(dir, c.Name+"-"+c.Version+".jar")
		pom, pomErr := r.loadPOM(c, filepath.Join(dir, c.Name+"-"+c.Version+".pom"))
		if pomErr != nil && !errors.Is(pomErr, errNoPOM) {
			return located{}, &UnresolvedDependencyError{Coordinate: c, Reason: "unreadable pom", Err: pomErr}
		}

		info, err := os.Stat(jar)
		switch {
		case err == nil && info.Mode().IsRegular():
			return located{
				source:     ResolvedSource{Coordinate: c, Path: jar, Kind: KindArchive, Depth: node.depth, Via: node.via},
				hasContent: true,
				pom:        pom,
			}, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return located{}, &UnresolvedDependencyError{Coordinate: c, Reason: "stat " + jar, Err: err}
		}
		if pom != nil && pom.Packaging == "pom" {
			return located{pom: pom}, nil
		}
	}
	reason := "not found in repositories"
	if !node.via.IsZero() {
		reason = fmt.Sprintf("required by %s: %s", node.via, reason)
	}
	return located{}, &UnresolvedDependencyError{Coordinate: c, Reason: reason}
}

// maxParentDepth bounds a <parent> chain so a cycle cannot recurse forever.
const maxParentDepth = 16

func (r *RepositoryResolver) loadPOM(c depspec.Coordinate, path string) (*pomProject, error) {
	return r.loadPOMChain(c, path, 0)
}

func (r *RepositoryResolver) loadPOMChain(c depspec.Coordinate, path string, depth int) (*pomProject, error) {
	key := c.String()
	r.mu.Lock()
	cached, ok := r.poms[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	pom, err := readPOM(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNoPOM
	}
	if err != nil {
		return nil, err
	}
	if err := r.inheritParent(c, pom, depth); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.poms[key] = pom
	r.mu.Unlock()
	return pom, nil
}

// inheritParent merges the parent POM chain of c into pom. A parent that no
// repository holds is logged and skipped; the child's own declarations still
// apply.
func (r *RepositoryResolver) inheritParent(c depspec.Coordinate, pom *pomProject, depth int) error {
	pc, ok := pom.Parent.coordinate()
	if !ok {
		return nil
	}
	if err := pc.Validate(); err != nil {
		slog.Warn("ignoring malformed parent pom", "pom", c, "error", err)
		return nil
	}
	if depth >= maxParentDepth {
		slog.Warn("parent pom chain too deep", "pom", c, "parent", pc)
		return nil
	}
	for _, repo := range r.repositories {
		parent, err := r.loadPOMChain(pc, filepath.Join(artifactDir(repo, pc), pc.Name+"-"+pc.Version+".pom"), depth+1)
		if errors.Is(err, errNoPOM) {
			continue
		}
		if err != nil {
			return fmt.Errorf("parent %s: %w", pc, err)
		}
		pom.inherit(parent)
		return nil
	}
	slog.Warn("parent pom not found in repositories", "pom", c, "parent", pc)
	return nil
}

func artifactDir(repo string, c depspec.Coordinate) string {
	parts := append([]string{repo}, strings.Split(c.Group, ".")...)
	return filepath.Join(append(parts, c.Name, c.Version)...)
}
