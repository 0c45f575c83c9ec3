// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatpack/fatpack/pkg/depspec"
)

// entryTime is stamped on every entry so output does not depend on source
// modification times.
var entryTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	fileMode os.FileMode = 0o644
	dirMode  os.FileMode = 0o755
)

type (
	// Options configures Assemble.
	Options struct {
		// Output is the archive path. Parent directories are created.
		Output   string
		Manifest depspec.ManifestSpec
		Policy   DuplicatePolicy
		// EntryExcludes are added to DefaultEntryExcludes.
		EntryExcludes []string
		// CreatedBy is recorded in the manifest when set.
		CreatedBy string
	}

	// Report summarizes a successful assembly.
	Report struct {
		Output string
		// Entries counts every entry written, manifest included.
		Entries    int
		Overridden []Shadow
		Duplicates []Shadow
		Skipped    int
		Size       int64
		SHA256     string
	}

	countingHash struct {
		hash.Hash
		n int64
	}
)

func (c *countingHash) Write(p []byte) (int, error) {
	n, err := c.Hash.Write(p)
	c.n += int64(n)
	return n, err
}

// Validate checks the options without touching the filesystem.
func (o Options) Validate() error {
	if o.Output == "" {
		return &ConfigurationError{Field: "output", Err: errors.New("output path is required")}
	}
	if err := o.Manifest.Validate(); err != nil {
		return &ConfigurationError{Field: "entry point", Err: err}
	}
	if err := o.Policy.Validate(); err != nil {
		return &ConfigurationError{Field: "duplicate policy", Err: err}
	}
	if err := ValidateEntryExcludes(o.EntryExcludes); err != nil {
		return &ConfigurationError{Field: "entry excludes", Err: err}
	}
	return nil
}

// Assemble validates opts, plans the merge of buildOutput and deps and writes
// the archive. Sources are not closed. On failure the temporary file is
// removed and a pre-existing file at opts.Output is left untouched.
func Assemble(ctx context.Context, opts Options, buildOutput, deps []Source) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	plan, err := BuildPlan(buildOutput, deps, PlanOptions{Policy: opts.Policy, EntryExcludes: opts.EntryExcludes, Output: opts.Output})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum, size, err := writeArchive(ctx, opts, plan)
	if err != nil {
		return nil, err
	}
	return &Report{
		Output:     opts.Output,
		Entries:    len(plan.Entries) + 2,
		Overridden: plan.Overridden,
		Duplicates: plan.Duplicates,
		Skipped:    plan.Skipped,
		Size:       size,
		SHA256:     sum,
	}, nil
}

func writeArchive(ctx context.Context, opts Options, plan *Plan) (sum string, size int64, err error) {
	dir := filepath.Dir(opts.Output)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, &IOError{Op: "create directory", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(opts.Output)+"-*.tmp")
	if err != nil {
		return "", 0, &IOError{Op: "create", Path: opts.Output, Err: err}
	}
	tmpPath := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			if closeErr := tmp.Close(); closeErr != nil && err == nil {
				err = &IOError{Op: "close", Path: tmpPath, Err: closeErr}
			}
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	h := &countingHash{Hash: sha256.New()}
	zw := zip.NewWriter(io.MultiWriter(tmp, h))

	if err = writeEntry(zw, ManifestDir, nil); err != nil {
		return "", 0, err
	}
	manifest := ManifestBytes(opts.Manifest, opts.CreatedBy)
	if err = writeEntry(zw, ManifestPath, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(manifest)), nil
	}); err != nil {
		return "", 0, err
	}

	for _, e := range plan.Entries {
		if err = ctx.Err(); err != nil {
			return "", 0, err
		}
		if e.IsDir() {
			err = writeEntry(zw, e.Path, nil)
		} else {
			err = writeEntry(zw, e.Path, e.Open)
		}
		if err != nil {
			return "", 0, err
		}
	}

	if err = zw.Close(); err != nil {
		return "", 0, &IOError{Op: "finalize", Path: opts.Output, Err: err}
	}
	if err = tmp.Chmod(fileMode); err != nil {
		return "", 0, &IOError{Op: "chmod", Path: tmpPath, Err: err}
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return "", 0, &IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err = os.Rename(tmpPath, opts.Output); err != nil {
		return "", 0, &IOError{Op: "rename", Path: opts.Output, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), h.n, nil
}

// writeEntry writes one entry with fixed metadata. A nil open writes a
// directory.
func writeEntry(zw *zip.Writer, name string, open func() (io.ReadCloser, error)) error {
	hdr := &zip.FileHeader{Name: name, Modified: entryTime}
	if open == nil {
		hdr.Method = zip.Store
		hdr.SetMode(os.ModeDir | dirMode)
	} else {
		hdr.Method = zip.Deflate
		hdr.SetMode(fileMode)
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return &IOError{Op: "write", Path: name, Err: err}
	}
	if open == nil {
		return nil
	}

	rc, err := open()
	if err != nil {
		return &IOError{Op: "read", Path: name, Err: err}
	}
	defer func() { _ = rc.Close() }()
	if _, err := io.Copy(w, rc); err != nil {
		return &IOError{Op: "copy", Path: name, Err: err}
	}
	return nil
}
