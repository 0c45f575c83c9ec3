// SPDX-License-Identifier: MPL-2.0

// Package issue holds fatpack's user-facing errors: ActionableError carries
// the failed operation, the resource and suggestions, and may link to a
// catalog entry whose Markdown guidance the CLI renders with glamour in
// verbose mode.
package issue
