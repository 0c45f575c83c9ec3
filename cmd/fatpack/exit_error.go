// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatpack/fatpack/internal/config"
	"github.com/fatpack/fatpack/internal/issue"
	"github.com/fatpack/fatpack/pkg/archive"
	"github.com/fatpack/fatpack/pkg/depspec"
	"github.com/fatpack/fatpack/pkg/resolve"
	"github.com/fatpack/fatpack/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classification is how the CLI presents one failure kind.
type classification struct {
	code        types.ExitCode
	issue       issue.Id
	suggestions []string
}

// classify maps a domain error to its exit code and catalog entry. Order
// matters: more specific kinds are checked before the configuration kind
// that may wrap them.
func classify(err error) classification {
	switch {
	case errors.Is(err, archive.ErrPathConflict):
		return classification{
			code:  types.ExitPathConflict,
			issue: issue.PathConflictId,
			suggestions: []string{
				"Exclude one of the libraries that ships the path",
				"Use --duplicate-policy first-wins to keep the first-listed copy",
			},
		}
	case errors.Is(err, resolve.ErrUnresolvedDependency):
		return classification{
			code:  types.ExitUnresolvedDependency,
			issue: issue.UnresolvedDependencyId,
			suggestions: []string{
				"Check the coordinate and the configured repositories",
				"Run 'fatpack resolve' to refresh the lock file",
			},
		}
	case errors.Is(err, resolve.ErrInvalidLockFile):
		return classification{
			code:        types.ExitConfiguration,
			issue:       issue.LockFileInvalidId,
			suggestions: []string{"Run 'fatpack resolve' to regenerate the lock file", "Use --no-lock to ignore it"},
		}
	case errors.Is(err, depspec.ErrMissingEntryPoint):
		return classification{
			code:        types.ExitConfiguration,
			issue:       issue.MissingEntryPointId,
			suggestions: []string{"Set manifest.entry_point in " + depspec.ProjectFileName, "Or pass --entry-point"},
		}
	case errors.Is(err, depspec.ErrInvalidBuildSpec) && errors.Is(err, os.ErrNotExist):
		return classification{
			code:        types.ExitConfiguration,
			issue:       issue.ProjectFileNotFoundId,
			suggestions: []string{"Run fatpack from the project directory or pass --file"},
		}
	case errors.Is(err, depspec.ErrInvalidBuildSpec):
		return classification{
			code:        types.ExitConfiguration,
			issue:       issue.ProjectParseErrorId,
			suggestions: []string{"Run 'fatpack validate' for details"},
		}
	case errors.Is(err, archive.ErrConfiguration), errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidLoadOptions):
		return classification{code: types.ExitConfiguration}
	case errors.Is(err, archive.ErrIO):
		return classification{
			code:        types.ExitIO,
			issue:       issue.ArchiveWriteFailedId,
			suggestions: []string{"Check permissions and free space in the output directory"},
		}
	default:
		return classification{code: types.ExitFailure}
	}
}

// fail wraps err for the CLI: it attaches the operation, resource, suggestions
// and catalog entry for the failure kind and the matching exit code.
func fail(operation, resource string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	c := classify(err)
	if errors.Is(err, context.Canceled) {
		c = classification{code: types.ExitFailure}
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		// Already carries its own context, e.g. configuration loading.
		if c.code == types.ExitFailure && ae.IssueId == issue.ConfigLoadFailedId {
			c.code = types.ExitConfiguration
		}
		return &ExitError{Code: c.code, Err: err}
	}

	wrapped := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(c.issue).
		WithSuggestions(c.suggestions...).
		Wrap(err).
		BuildError()
	return &ExitError{Code: c.code, Err: wrapped}
}

// exitCodeOf returns the process exit code for an error returned by the root command.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFailure
}
