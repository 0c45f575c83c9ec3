// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/fatpack/fatpack/internal/app/assemble"

	"github.com/spf13/cobra"
)

func newValidateCommand(app *App) *cobra.Command {
	var req assemble.Request

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the project file",
		Long: `Parse the project file against its schema and run every check assemble
performs before touching the filesystem, including the entry point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := app.service(app.effectiveConfig()).Validate(req)
			if err != nil {
				return fail("validate project", req.ProjectFile, err)
			}
			renderProject(app.stdout, project)
			return nil
		},
	}

	addProjectFlag(cmd, &req.ProjectFile)
	cmd.Flags().StringVar(&req.EntryPoint, "entry-point", "", "entry point to validate with (overrides the project file)")
	return cmd
}
