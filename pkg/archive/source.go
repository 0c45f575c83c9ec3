// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

type (
	// Entry is one file or directory offered by a source. Paths use '/'
	// and directories end in '/'.
	Entry struct {
		Path   string
		Origin string
		// file is the resolved location on disk for directory sources.
		file string
		open func() (io.ReadCloser, error)
	}

	// Source is an ordered provider of entries.
	Source interface {
		// Name identifies the source in conflicts and reports.
		Name() string
		// Entries lists the entries in a stable order.
		Entries() ([]Entry, error)
		// Close releases resources held by the source.
		Close() error
	}

	// DirSource offers the files under a directory in lexical walk order.
	DirSource struct {
		name string
		root string
	}

	// ZipSource offers the entries of a ZIP or JAR file in central directory
	// order.
	ZipSource struct {
		name   string
		path   string
		reader *zip.ReadCloser
	}

	// MemorySource offers in-memory files, sorted by path.
	MemorySource struct {
		name  string
		files map[string][]byte
	}
)

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return strings.HasSuffix(e.Path, "/") }

// Open returns the entry content. Directories have none.
func (e Entry) Open() (io.ReadCloser, error) {
	if e.IsDir() || e.open == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return e.open()
}

// OpenSource opens the file or directory at p as a Source named name.
func OpenSource(name, p string) (Source, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, &IOError{Op: "open source", Path: p, Err: err}
	}
	if info.IsDir() {
		return NewDirSource(name, p), nil
	}
	return OpenZipSource(name, p)
}

// NewDirSource creates a source over the directory root.
func NewDirSource(name, root string) *DirSource {
	return &DirSource{name: name, root: root}
}

// Name implements Source.
func (s *DirSource) Name() string { return s.name }

// Close implements Source.
func (s *DirSource) Close() error { return nil }

// Entries implements Source. A symlinked root is followed; WalkDir itself
// does not descend into one.
func (s *DirSource) Entries() ([]Entry, error) {
	root, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return nil, &IOError{Op: "walk", Path: s.root, Err: err}
	}
	if root, err = filepath.Abs(root); err != nil {
		return nil, &IOError{Op: "walk", Path: s.root, Err: err}
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)
		switch {
		case d.IsDir():
			entries = append(entries, Entry{Path: name + "/", Origin: s.name})
		case d.Type().IsRegular() || isLinkToFile(p, d):
			full := p
			entries = append(entries, Entry{
				Path:   name,
				Origin: s.name,
				file:   full,
				open:   func() (io.ReadCloser, error) { return os.Open(full) },
			})
		default:
			slog.Debug("skipping special file", "source", s.name, "path", name)
		}
		return nil
	})
	if err != nil {
		return nil, &IOError{Op: "walk", Path: s.root, Err: err}
	}
	return entries, nil
}

func isLinkToFile(p string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// OpenZipSource opens the archive at p.
func OpenZipSource(name, p string) (*ZipSource, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, &IOError{Op: "open archive", Path: p, Err: err}
	}
	return &ZipSource{name: name, path: p, reader: rc}, nil
}

// Name implements Source.
func (s *ZipSource) Name() string { return s.name }

// Close implements Source.
func (s *ZipSource) Close() error { return s.reader.Close() }

// Entries implements Source.
func (s *ZipSource) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(s.reader.File))
	for _, f := range s.reader.File {
		name, ok := cleanEntryName(f.Name)
		if !ok {
			slog.Warn("skipping unsafe archive entry", "source", s.name, "entry", f.Name)
			continue
		}
		if f.FileInfo().IsDir() && !strings.HasSuffix(name, "/") {
			name += "/"
		}
		entries = append(entries, Entry{Path: name, Origin: s.name, open: f.Open})
	}
	return entries, nil
}

// NewMemorySource creates a source over the given path to content map.
func NewMemorySource(name string, files map[string][]byte) *MemorySource {
	return &MemorySource{name: name, files: files}
}

// Name implements Source.
func (s *MemorySource) Name() string { return s.name }

// Close implements Source.
func (s *MemorySource) Close() error { return nil }

// Entries implements Source.
func (s *MemorySource) Entries() ([]Entry, error) {
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		clean, ok := cleanEntryName(name)
		if !ok {
			return nil, &IOError{Op: "read", Path: s.name, Err: fmt.Errorf("unsafe entry name %q", name)}
		}
		content := s.files[name]
		entries = append(entries, Entry{
			Path:   clean,
			Origin: s.name,
			open:   func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(content)), nil },
		})
	}
	return entries, nil
}

// cleanEntryName normalizes an archive path and rejects names that escape
// the archive root.
func cleanEntryName(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	dir := strings.HasSuffix(name, "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", false
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	if dir {
		clean += "/"
	}
	return clean, true
}
