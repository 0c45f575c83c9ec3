// SPDX-License-Identifier: MPL-2.0

// Package depspec defines the declarative data model of a fatpack project:
// dependency coordinates, their PROVIDED/BUNDLED classification, exclusion
// patterns, the manifest entry point and the fatpack.cue project file that
// ties them together.
//
// Values in this package are immutable for the duration of an assembly run.
// Validation follows the value-type convention used across the module:
// Validate returns nil or an Invalid*Error that unwraps to a package sentinel.
package depspec
