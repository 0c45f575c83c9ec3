// SPDX-License-Identifier: MPL-2.0

// Package resolve turns declared dependencies into the ordered list of
// archive sources that make up their transitive closure.
//
// The assembler only consumes the Resolver interface. Three implementations
// are provided:
//
//   - RepositoryResolver walks Maven-layout local repositories and reads POM
//     files for transitive dependencies.
//   - LockResolver replays a fatpack.lock.toml file written by Lock, verifying
//     archive checksums.
//   - MapResolver is a fixed in-memory table, used by tests and embedders.
//
// A dependency with an explicit Path always resolves to that single source.
package resolve
