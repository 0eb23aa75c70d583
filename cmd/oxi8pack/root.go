// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

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

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the oxi8pack command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootFlags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "oxi8pack",
		Short: "Package CHIP-8 ROM collections into a web bundle",
		Long: TitleStyle.Render("oxi8pack") + SubtitleStyle.Render(" - Package CHIP-8 ROM collections into a web bundle") + `

oxi8pack scans the base, SCHIP and Octo ROM directories, writes an HTML
catalog whose links carry each ROM inline, and assembles the catalog with
the emulator front-end into a deployable directory and zip archive.

` + SubtitleStyle.Render("Examples:") + `
  oxi8pack build            Build dist/web and dist/web.zip
  oxi8pack build --watch    Rebuild whenever a ROM or asset changes
  oxi8pack verify           Check that every catalog link decodes
  oxi8pack config init      Write oxi8pack.cue with the defaults`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			app.setVerbose(rootFlags.verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configPath, "config", "c", "", "config file (default ./oxi8pack.cue, then the user config)")

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.AddCommand(
		newBuildCommand(app, rootFlags),
		newVerifyCommand(app, rootFlags),
		newConfigCommand(app, rootFlags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+err.Error())
		os.Exit(ExitFailure)
	}

	// fang overrides rootCmd.Version, so the version is passed explicitly.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}
