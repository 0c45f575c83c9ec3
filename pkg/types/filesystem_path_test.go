// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFilesystemPath_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path FilesystemPath
		ok   bool
	}{
		{"build output dir", "build/classes/java/main", true},
		{"absolute jar", "/home/dev/.m2/repository/org/yaml/snakeyaml/1.26/snakeyaml-1.26.jar", true},
		{"windows repository", `C:\Users\dev\.m2\repository`, true},
		{"project dir", ".", true},
		{"empty", "", false},
		{"spaces", "   ", false},
		{"tab", "\t", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.path.Validate()
			if tt.ok {
				if err != nil {
					t.Errorf("Validate(%q) = %v, want nil", tt.path, err)
				}
				return
			}
			var fpErr *InvalidFilesystemPathError
			if !errors.As(err, &fpErr) || !errors.Is(err, ErrInvalidFilesystemPath) {
				t.Errorf("Validate(%q) = %v, want *InvalidFilesystemPathError", tt.path, err)
			}
		})
	}
}

func TestFilesystemPath_String(t *testing.T) {
	t.Parallel()
	p := FilesystemPath("build/libs/app-1.0-standalone.jar")
	if p.String() != "build/libs/app-1.0-standalone.jar" {
		t.Errorf("FilesystemPath.String() = %q, want %q", p.String(), "build/libs/app-1.0-standalone.jar")
	}
}

func TestFilesystemPath_Resolve(t *testing.T) {
	t.Parallel()

	base := filepath.Join("work", "project")
	abs, err := filepath.Abs("somewhere")
	if err != nil {
		t.Fatalf("filepath.Abs() failed: %v", err)
	}

	tests := []struct {
		name string
		path FilesystemPath
		base string
		want FilesystemPath
	}{
		{"relative joins base", FilesystemPath("build/classes"), base, FilesystemPath(filepath.Join(base, "build", "classes"))},
		{"absolute ignores base", FilesystemPath(abs), base, FilesystemPath(abs)},
		{"empty base cleans", FilesystemPath("a/./b"), "", FilesystemPath(filepath.Join("a", "b"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.path.Resolve(tt.base); got != tt.want {
				t.Errorf("FilesystemPath(%q).Resolve(%q) = %q, want %q", tt.path, tt.base, got, tt.want)
			}
		})
	}
}
