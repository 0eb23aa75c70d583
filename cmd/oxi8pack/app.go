// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/oxi8/oxi8pack/internal/config"
	"github.com/oxi8/oxi8pack/internal/pipeline"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and delegates
	// through its service interfaces.
	App struct {
		Config  ConfigProvider
		Builder BuildService
		stdout  io.Writer
		stderr  io.Writer
		logger  *log.Logger
		// issueStyle is the glamour style used for issue catalog entries.
		issueStyle string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Builder BuildService
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// BuildService runs one packaging pass for a validated configuration.
	BuildService interface {
		Build(ctx context.Context, cfg *config.Config, opts ...pipeline.Option) (*pipeline.Report, error)
	}

	pipelineBuilder struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Builder == nil {
		deps.Builder = pipelineBuilder{}
	}

	return &App{
		Config:  deps.Config,
		Builder: deps.Builder,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		logger: log.NewWithOptions(deps.Stderr, log.Options{
			Prefix: "oxi8pack",
			Level:  log.WarnLevel,
		}),
		issueStyle: "dark",
	}, nil
}

// Build runs the packaging pipeline.
func (pipelineBuilder) Build(ctx context.Context, cfg *config.Config, opts ...pipeline.Option) (*pipeline.Report, error) {
	return pipeline.New(cfg, opts...).Run(ctx)
}

// Logger returns the structured logger handed to library packages.
func (a *App) Logger() *slog.Logger {
	return slog.New(a.logger)
}

// setVerbose switches the CLI logger between warnings only and debug output.
func (a *App) setVerbose(verbose bool) {
	if verbose {
		a.logger.SetLevel(log.DebugLevel)
		a.logger.SetReportTimestamp(true)
		return
	}
	a.logger.SetLevel(log.WarnLevel)
	a.logger.SetReportTimestamp(false)
}

// applyUI applies the configured UI preferences. It never lowers a verbosity
// requested on the command line.
func (a *App) applyUI(ui config.UIConfig, flagVerbose bool) bool {
	verbose := flagVerbose || ui.Verbose
	a.setVerbose(verbose)

	switch ui.ColorScheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
		a.issueStyle = "dark"
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
		a.issueStyle = "light"
	default:
		if lipgloss.HasDarkBackground() {
			a.issueStyle = "dark"
		} else {
			a.issueStyle = "light"
		}
	}
	return verbose
}

// loadConfig loads and validates configuration for a command invocation.
// Failures are rendered and returned as an ExitError with ExitConfig.
func (a *App) loadConfig(ctx context.Context, rootFlags *rootFlagValues) (*config.Config, bool, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return nil, rootFlags.verbose, a.fail(configServiceError(err), ExitConfig, rootFlags.verbose)
	}
	return cfg, a.applyUI(cfg.UI, rootFlags.verbose), nil
}

// fail renders a service error and wraps it with an exit code.
func (a *App) fail(svcErr *ServiceError, code int, verbose bool) error {
	renderServiceError(a.stderr, svcErr, verbose, a.issueStyle)
	return &ExitError{Code: code, Err: svcErr}
}
