// SPDX-License-Identifier: MPL-2.0

// Package assemble is the application service behind the fatpack commands.
// It loads a project file, applies command line overrides, resolves the
// declared dependencies, decides which resolved sources ship in the archive
// and hands the survivors to pkg/archive. It never writes to stdout or
// stderr; callers render the returned values.
package assemble
