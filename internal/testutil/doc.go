// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers that fail the test on error, so fixtures
// stay one line each: environment variables (MustSetenv, SetHomeDir) and
// project trees on disk (WriteFile, WriteTree).
package testutil
