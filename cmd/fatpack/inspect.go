// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/fatpack/fatpack/pkg/archive"

	"github.com/spf13/cobra"
)

func newInspectCommand(app *App) *cobra.Command {
	var listEntries bool

	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Show the manifest and contents of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			inv, err := archive.Inspect(args[0])
			if err != nil {
				return fail("inspect archive", args[0], err)
			}
			renderInventory(app.stdout, inv, listEntries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&listEntries, "entries", false, "list every entry")
	return cmd
}
