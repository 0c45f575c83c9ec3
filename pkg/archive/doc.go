// SPDX-License-Identifier: MPL-2.0

// Package archive assembles self-contained ZIP/JAR archives.
//
// Assembly happens in two phases. BuildPlan reads the entry lists of every
// source and decides, for each path, which source survives:
//
//   - build output sources win every conflict,
//   - dependency sources are merged in the order given, following the
//     DuplicatePolicy for paths written by more than one of them,
//   - directory entries never conflict,
//   - dependency manifests and signature files are dropped.
//
// Only when a plan exists does Assemble create the output. The manifest is
// written first, followed by the planned entries in path order with fixed
// timestamps and modes, so identical inputs give byte-identical archives.
// The archive is written to a temporary file and renamed into place; on any
// failure the temporary file is removed.
package archive
