// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/fatpack/fatpack/internal/app/assemble"
	"github.com/fatpack/fatpack/internal/config"
	"github.com/fatpack/fatpack/pkg/resolve"
	"github.com/fatpack/fatpack/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. All command handlers
	// receive an App reference and delegate through it.
	App struct {
		Config   ConfigProvider
		resolver resolve.Resolver
		stdout   io.Writer
		stderr   io.Writer

		// Set by the root command's persistent flags.
		configPath string
		verbose    bool
		cfg        *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Resolver replaces lock file and repository resolution.
		Resolver resolve.Resolver
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config:   deps.Config,
		resolver: deps.Resolver,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
}

// loadConfig loads user configuration honoring --config.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: types.FilesystemPath(a.configPath)})
	if err != nil {
		return nil, err
	}
	if a.verbose {
		cfg.UI.Verbose = true
	}
	return cfg, nil
}

// service builds the assemble service for cfg.
func (a *App) service(cfg *config.Config) *assemble.Service {
	var opts []assemble.Option
	if a.resolver != nil {
		opts = append(opts, assemble.WithResolver(a.resolver))
	}
	return assemble.NewService(cfg, opts...)
}
