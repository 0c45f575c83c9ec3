// SPDX-License-Identifier: MPL-2.0

package types

import "strconv"

// Process exit statuses reported by the fatpack CLI. Each failure kind of the
// assembly step has its own code so build scripts can branch on it.
const (
	// ExitSuccess means the command completed.
	ExitSuccess ExitCode = 0
	// ExitFailure is used for errors that have no dedicated code.
	ExitFailure ExitCode = 1
	// ExitConfiguration covers malformed project files, invalid flags and a
	// missing entry point.
	ExitConfiguration ExitCode = 2
	// ExitUnresolvedDependency means a bundled dependency had no content.
	ExitUnresolvedDependency ExitCode = 3
	// ExitPathConflict means two dependencies wrote the same path under the
	// "error" duplicate policy.
	ExitPathConflict ExitCode = 4
	// ExitIO means the archive could not be read or written.
	ExitIO ExitCode = 5
)

// ExitCode is a process exit status. The zero value means success.
type ExitCode int

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// Describe returns a short human label for the fatpack exit codes, or an
// empty string for codes fatpack never produces.
func (c ExitCode) Describe() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitFailure:
		return "unexpected error"
	case ExitConfiguration:
		return "configuration error"
	case ExitUnresolvedDependency:
		return "unresolved dependency"
	case ExitPathConflict:
		return "path conflict"
	case ExitIO:
		return "i/o failure"
	default:
		return ""
	}
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
