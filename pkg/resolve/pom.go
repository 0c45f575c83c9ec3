// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatpack/fatpack/pkg/depspec"
)

// POM scopes that never reach a runtime classpath.
var skippedScopes = map[string]bool{
	"test":     true,
	"provided": true,
	"system":   true,
	"import":   true,
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

type (
	pomProject struct {
		XMLName      xml.Name        `xml:"project"`
		GroupID      string          `xml:"groupId"`
		ArtifactID   string          `xml:"artifactId"`
		Version      string          `xml:"version"`
		Packaging    string          `xml:"packaging"`
		Parent       pomParent       `xml:"parent"`
		Properties   pomProperties   `xml:"properties"`
		Dependencies []pomDependency `xml:"dependencies>dependency"`
		Managed      []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	}

	pomParent struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	}

	pomDependency struct {
		GroupID    string         `xml:"groupId"`
		ArtifactID string         `xml:"artifactId"`
		Version    string         `xml:"version"`
		Type       string         `xml:"type"`
		Classifier string         `xml:"classifier"`
		Scope      string         `xml:"scope"`
		Optional   string         `xml:"optional"`
		Exclusions []pomExclusion `xml:"exclusions>exclusion"`
	}

	pomExclusion struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
	}

	// pomProperties collects the free-form <properties> children.
	pomProperties map[string]string
)

// UnmarshalXML implements xml.Unmarshaler.
func (p *pomProperties) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	props := make(map[string]string)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			props[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			*p = props
			return nil
		}
	}
}

func readPOM(path string) (*pomProject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parsePOM(f)
}

func parsePOM(r io.Reader) (*pomProject, error) {
	var p pomProject
	dec := xml.NewDecoder(r)
	// POMs in the wild declare ISO-8859-1 often enough; their tag content
	// is ASCII in practice, so pass bytes through.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse pom: %w", err)
	}
	if p.GroupID == "" {
		p.GroupID = p.Parent.GroupID
	}
	if p.Version == "" {
		p.Version = p.Parent.Version
	}
	return &p, nil
}

// interpolate expands ${...} references. Unknown references are left as-is.
func (p *pomProject) interpolate(s string) string {
	if !strings.Contains(s, "${") {
		return strings.TrimSpace(s)
	}
	for range 8 {
		next := propertyRef.ReplaceAllStringFunc(s, func(ref string) string {
			if v, ok := p.property(ref[2 : len(ref)-1]); ok {
				return v
			}
			return ref
		})
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

func (p *pomProject) property(name string) (string, bool) {
	switch name {
	case "project.version", "pom.version", "version":
		return p.Version, p.Version != ""
	case "project.groupId", "pom.groupId", "groupId":
		return p.GroupID, p.GroupID != ""
	case "project.artifactId", "pom.artifactId", "artifactId":
		return p.ArtifactID, p.ArtifactID != ""
	case "project.parent.version", "parent.version":
		return p.Parent.Version, p.Parent.Version != ""
	case "project.parent.groupId", "parent.groupId":
		return p.Parent.GroupID, p.Parent.GroupID != ""
	}
	v, ok := p.Properties[name]
	return v, ok
}

// coordinate identifies the parent POM, or reports false when none is
// declared.
func (p pomParent) coordinate() (depspec.Coordinate, bool) {
	c := depspec.Coordinate{
		Group:   strings.TrimSpace(p.GroupID),
		Name:    strings.TrimSpace(p.ArtifactID),
		Version: strings.TrimSpace(p.Version),
	}
	if c.Group == "" && c.Name == "" && c.Version == "" {
		return depspec.Coordinate{}, false
	}
	return c, true
}

// inherit merges what a child POM takes from its parent: properties,
// managed versions and declared dependencies. Child declarations win.
func (p *pomProject) inherit(parent *pomProject) {
	if len(parent.Properties) > 0 {
		props := make(pomProperties, len(p.Properties)+len(parent.Properties))
		for k, v := range parent.Properties {
			props[k] = v
		}
		for k, v := range p.Properties {
			props[k] = v
		}
		p.Properties = props
	}
	p.Managed = append(p.Managed, parent.Managed...)

	declared := make(map[string]bool, len(p.Dependencies))
	for _, d := range p.Dependencies {
		declared[strings.TrimSpace(d.GroupID)+":"+strings.TrimSpace(d.ArtifactID)] = true
	}
	for _, d := range parent.Dependencies {
		if !declared[strings.TrimSpace(d.GroupID)+":"+strings.TrimSpace(d.ArtifactID)] {
			p.Dependencies = append(p.Dependencies, d)
		}
	}
}

// managed returns the dependencyManagement entry for group:name. The first
// match wins, so the child's entries shadow the parent's.
func (p *pomProject) managed(group, name string) (pomDependency, bool) {
	for _, m := range p.Managed {
		if strings.TrimSpace(m.Scope) == "import" {
			continue
		}
		if p.interpolate(m.GroupID) == group && p.interpolate(m.ArtifactID) == name {
			return m, true
		}
	}
	return pomDependency{}, false
}

// runtimeDependencies returns the dependencies that reach a runtime
// classpath, with managed versions filled in and property references
// expanded.
func (p *pomProject) runtimeDependencies() []pomDependency {
	var out []pomDependency
	for _, d := range p.Dependencies {
		d.GroupID = p.interpolate(d.GroupID)
		d.ArtifactID = p.interpolate(d.ArtifactID)
		if m, ok := p.managed(d.GroupID, d.ArtifactID); ok {
			if strings.TrimSpace(d.Version) == "" {
				d.Version = m.Version
			}
			if strings.TrimSpace(d.Scope) == "" {
				d.Scope = m.Scope
			}
			if len(d.Exclusions) == 0 {
				d.Exclusions = m.Exclusions
			}
		}
		scope := strings.TrimSpace(d.Scope)
		if skippedScopes[scope] || strings.EqualFold(strings.TrimSpace(d.Optional), "true") {
			continue
		}
		d.Version = p.interpolate(d.Version)
		out = append(out, d)
	}
	return out
}

// excludes reports whether a POM exclusion list cuts group:name.
// "*" matches anything in either position.
func excludedByPOM(exclusions []pomExclusion, group, name string) bool {
	for _, ex := range exclusions {
		g := strings.TrimSpace(ex.GroupID)
		a := strings.TrimSpace(ex.ArtifactID)
		if (g == "*" || g == group) && (a == "*" || a == "" || a == name) {
			return true
		}
	}
	return false
}

var errNoPOM = errors.New("no pom")
