// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/fatpack/fatpack/pkg/depspec"
)

const (
	// ManifestDir is the directory entry written before the manifest.
	ManifestDir = "META-INF/"
	// ManifestPath is the archive path of the manifest.
	ManifestPath = "META-INF/MANIFEST.MF"

	manifestVersion = "Manifest-Version"
	createdBy       = "Created-By"
	maxLineBytes    = 72
)

// ManifestAttribute is one "Name: Value" header of the main section.
type ManifestAttribute struct {
	Name  string
	Value string
}

// ManifestBytes renders the main section of a JAR manifest: the version,
// Created-By (when tool is set), the entry point and the extra attributes
// sorted by name. Lines end in CRLF and are wrapped at 72 bytes.
func ManifestBytes(m depspec.ManifestSpec, tool string) []byte {
	attrs := []ManifestAttribute{{Name: manifestVersion, Value: "1.0"}}
	if tool != "" {
		attrs = append(attrs, ManifestAttribute{Name: createdBy, Value: tool})
	}
	attrs = append(attrs, ManifestAttribute{Name: m.Attribute(), Value: m.EntryPoint})

	reserved := map[string]bool{
		strings.ToLower(manifestVersion): true,
		strings.ToLower(createdBy):       true,
		strings.ToLower(m.Attribute()):   true,
	}
	names := make([]string, 0, len(m.Attributes))
	for name := range m.Attributes {
		if !reserved[strings.ToLower(name)] {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		attrs = append(attrs, ManifestAttribute{Name: name, Value: m.Attributes[name]})
	}

	var buf bytes.Buffer
	for _, a := range attrs {
		writeManifestLine(&buf, a.Name+": "+a.Value)
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// writeManifestLine wraps line at 72 bytes, continuing with a leading space,
// without splitting UTF-8 sequences.
func writeManifestLine(buf *bytes.Buffer, line string) {
	limit := maxLineBytes
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		buf.WriteString(line[:cut])
		buf.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineBytes - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
}

// ParseManifest reads the main section of a manifest, joining continuation
// lines. Attribute order is preserved.
func ParseManifest(r io.Reader) ([]ManifestAttribute, error) {
	var (
		attrs   []ManifestAttribute
		current strings.Builder
	)
	flush := func() error {
		if current.Len() == 0 {
			return nil
		}
		name, value, ok := strings.Cut(current.String(), ": ")
		if !ok {
			return fmt.Errorf("malformed manifest line %q", current.String())
		}
		attrs = append(attrs, ManifestAttribute{Name: name, Value: value})
		current.Reset()
		return nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, " ") {
			current.WriteString(line[1:])
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		current.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return attrs, nil
}

// LookupAttribute returns the value of the named attribute. Names compare
// case-insensitively, as in the JAR format.
func LookupAttribute(attrs []ManifestAttribute, name string) (string, bool) {
	for _, a := range attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}
