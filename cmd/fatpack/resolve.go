// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/fatpack/fatpack/internal/app/assemble"

	"github.com/spf13/cobra"
)

func newResolveCommand(app *App) *cobra.Command {
	var req assemble.Request

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve dependencies and write the lock file",
		Long: `Resolve every declared dependency from the configured repositories,
write the lock file next to the project file and show which resolved
sources will be bundled and why the others are dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.service(app.effectiveConfig()).Resolve(cmd.Context(), req)
			if err != nil {
				return fail("resolve dependencies", req.ProjectFile, err)
			}
			renderResolveResult(app.stdout, result)
			return nil
		},
	}

	addProjectFlag(cmd, &req.ProjectFile)
	return cmd
}
