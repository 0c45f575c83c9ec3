// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/fatpack/fatpack/internal/config"
	"github.com/fatpack/fatpack/internal/issue"
	"github.com/fatpack/fatpack/internal/logging"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fatpack",
		Short: "Assemble a self-contained plugin archive",
		Long: TitleStyle.Render("fatpack") + SubtitleStyle.Render(" - assemble a self-contained plugin archive") + `

fatpack merges a project's build output with its BUNDLED dependencies into
one archive a host application can load. PROVIDED dependencies, and
everything they pull in, are left to the host.

The project is described by 'fatpack.cue' in CUE format.

` + SubtitleStyle.Render("Examples:") + `
  fatpack validate                       Check the project file
  fatpack resolve                        Resolve dependencies and write the lock file
  fatpack assemble                       Build the archive
  fatpack assemble --duplicate-policy error
  fatpack inspect build/libs/app-1.0-standalone.jar --entries`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/fatpack/config.cue)")

	rootCmd.AddCommand(newAssembleCommand(app))
	rootCmd.AddCommand(newResolveCommand(app))
	rootCmd.AddCommand(newValidateCommand(app))
	rootCmd.AddCommand(newInspectCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// setup loads configuration and installs the logger. It runs before every
// command.
func (a *App) setup(ctx context.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return fail("load configuration", a.configPath, err)
	}
	if _, err := logging.Setup(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: cfg.UI.Verbose,
		Writer:  a.stderr,
	}); err != nil {
		return fail("configure logging", "", err)
	}
	a.cfg = cfg
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// handleError prints a failure. Actionable errors get their suggestions, and
// in verbose mode the error chain and catalog entry.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:"), err.Error())
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:"), ae.Format(a.verbose))
	if !a.verbose {
		return
	}
	if entry := ae.Issue(); entry != nil {
		rendered, renderErr := entry.Render("dark")
		if renderErr != nil {
			fmt.Fprintln(w, VerboseStyle.Render("(failed to render help: "+renderErr.Error()+")"))
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, app *App, args []string) int {
	rootCmd := newRootCommand(app)
	rootCmd.SetArgs(args)

	// fang.Execute adds styled help, --version and signal handling.
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	)
	code := exitCodeOf(err)
	if !code.IsSuccess() {
		slog.Debug("command failed", "exit_code", code, "kind", code.Describe())
	}
	return int(code)
}

// Main runs fatpack against the process arguments and returns the exit code.
func Main() int {
	return Run(context.Background(), NewApp(Dependencies{}), os.Args[1:])
}

// Execute runs fatpack and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

// effectiveConfig returns the configuration loaded by the root command,
// falling back to defaults when a command runs without it.
func (a *App) effectiveConfig() *config.Config {
	if a.cfg == nil {
		return config.DefaultConfig()
	}
	return a.cfg
}
