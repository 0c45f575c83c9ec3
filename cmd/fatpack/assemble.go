// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/fatpack/fatpack/internal/app/assemble"
	"github.com/fatpack/fatpack/pkg/depspec"

	"github.com/spf13/cobra"
)

// addProjectFlag registers --file on cmd.
func addProjectFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "file", "f", depspec.ProjectFileName, "project file")
}

func newAssembleCommand(app *App) *cobra.Command {
	var req assemble.Request

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Build the self-contained archive",
		Long: `Build the self-contained archive.

The archive holds the project's build output, every BUNDLED dependency and
its transitive closure, minus PROVIDED libraries and excluded modules. The
manifest is written first and names the entry point.

Sources come from the lock file when one exists next to the project file,
otherwise from the configured repositories.

Exit codes:
  0  archive written
  2  configuration error (project file, flags, missing entry point)
  3  a dependency could not be resolved
  4  two dependencies write the same path (--duplicate-policy error)
  5  the archive could not be read or written`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.service(app.effectiveConfig()).Assemble(cmd.Context(), req)
			if err != nil {
				return fail("assemble archive", req.ProjectFile, err)
			}
			renderAssembleResult(app.stdout, result, app.verbose)
			return nil
		},
	}

	addProjectFlag(cmd, &req.ProjectFile)
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "archive path (default <output_dir>/<name>-<version>-<classifier>.jar)")
	cmd.Flags().StringVar(&req.EntryPoint, "entry-point", "", "entry point recorded in the manifest (overrides the project file)")
	cmd.Flags().StringVar(&req.DuplicatePolicy, "duplicate-policy", "", "duplicate path policy: error or first-wins")
	cmd.Flags().BoolVar(&req.NoLock, "no-lock", false, "ignore the lock file and resolve from repositories")

	return cmd
}
