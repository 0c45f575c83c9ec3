// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

type (
	// ValidationError reports every schema violation found in one document.
	ValidationError struct {
		File   string
		Fields []FieldError
	}

	// FieldError is one violation. Path uses JSON-path notation, for
	// example "dependencies[0].classification"; it is empty for errors that
	// are not tied to a field, such as syntax errors.
	FieldError struct {
		Path    string
		Message string
	}
)

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Error renders "<file>: <path>: <message>" for a single violation and a
// bulleted list otherwise.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return e.File + ": " + e.Fields[0].String()
	}
	lines := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		lines[i] = f.String()
	}
	return fmt.Sprintf("%s: %d validation errors:\n  %s", e.File, len(e.Fields), strings.Join(lines, "\n  "))
}

// Path returns the path of the first violation.
func (e *ValidationError) Path() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Path
}

// FormatError turns a CUE error into a *ValidationError naming file. Errors
// that did not come from CUE are wrapped with the file name.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}
	cueErrs := errors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	out := &ValidationError{File: file}
	for _, e := range cueErrs {
		path := formatPath(errors.Path(e))
		msg := strings.TrimSpace(e.Error())
		if path != "" && strings.HasPrefix(msg, path) {
			// CUE repeats the path at the start of some messages.
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		out.Fields = append(out.Fields, FieldError{Path: path, Message: msg})
	}
	return out
}

// formatPath renders ["dependencies", "0", "id"] as "dependencies[0].id".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			b.WriteString("[" + part + "]")
		case i > 0:
			b.WriteString("." + part)
		default:
			b.WriteString(part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}

// CheckFileSize rejects documents larger than maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, file string) error {
	if n := int64(len(data)); n > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", file, n, maxSize)
	}
	return nil
}
