// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user CUE documents against embedded schemas.
//
// Both the project file and the user configuration go through Unify: the
// schema is compiled, the named definition is unified with the document and
// the result validated. Decode adds decoding into a Go value. Errors name the
// offending field by its path, for example "dependencies[0].id".
package cueutil
