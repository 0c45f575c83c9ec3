// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Inventory describes an existing archive.
type Inventory struct {
	Path     string
	Manifest []ManifestAttribute
	// Entries are in archive order.
	Entries []string
	// ManifestFirst is true when META-INF/ and the manifest are the first
	// entries, as the JAR tools expect.
	ManifestFirst bool
	Size          int64
	SHA256        string
}

// Inspect reads the entry list and manifest of the archive at path.
func Inspect(path string) (inv *Inventory, err error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, &IOError{Op: "open archive", Path: path, Err: err}
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: closeErr}
		}
	}()

	inv = &Inventory{Path: path}
	for i, f := range rc.File {
		inv.Entries = append(inv.Entries, f.Name)
		if f.Name != ManifestPath {
			continue
		}
		inv.ManifestFirst = i <= 1 && (i == 0 || rc.File[0].Name == ManifestDir)
		if inv.Manifest, err = readManifestEntry(f); err != nil {
			return nil, &IOError{Op: "read manifest", Path: path, Err: err}
		}
	}

	inv.SHA256, inv.Size, err = hashFile(path)
	if err != nil {
		return nil, &IOError{Op: "hash", Path: path, Err: err}
	}
	return inv, nil
}

// EntryPoint returns the value of attribute from the manifest.
func (inv *Inventory) EntryPoint(attribute string) (string, bool) {
	return LookupAttribute(inv.Manifest, attribute)
}

func readManifestEntry(f *zip.File) ([]ManifestAttribute, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return ParseManifest(r)
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
