// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oxi8/oxi8pack/internal/config"
	"github.com/oxi8/oxi8pack/internal/issue"
)

// newConfigCommand creates the `oxi8pack config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage oxi8pack configuration",
		Long: `Manage oxi8pack configuration.

Configuration is read from the first of:
  - the file given with --config
  - oxi8pack.cue in the working directory
  - the user config file (` + "`oxi8pack config path`" + ` prints it)

Unset keys keep their defaults and OXI8PACK_* environment variables
override file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				cmd.SilenceErrors = true
				return err
			}

			source, err := config.Resolve(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
			if err != nil {
				return err
			}
			if source == "" {
				source = SubtitleStyle.Render("(using defaults)")
			}

			fmt.Fprintf(app.stderr, "%s %s\n\n", CmdStyle.Render("Config file:"), source)
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	var (
		force bool
		user  bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write a configuration file with the defaults.

By default the project file oxi8pack.cue is created in the working directory;
--user writes the user config file instead. Existing files are kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ProjectFileName
			if user {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
			}

			if err := config.WriteFile(path, config.DefaultConfig(), force); err != nil {
				cmd.SilenceErrors = true
				svcErr := newServiceError(
					issue.NewErrorContext().
						WithOperation("write configuration").
						WithResource(path).
						WithIssue(issue.ConfigLoadFailedId).
						WithSuggestion("Pass --force to replace an existing file").
						Wrap(err).
						BuildError(),
					issue.ConfigLoadFailedId, "")
				return app.fail(svcErr, ExitConfig, rootFlags.verbose)
			}

			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&user, "user", false, "write the user config file instead of ./oxi8pack.cue")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}

			source, err := config.Resolve(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
			if err != nil {
				return err
			}
			if source == "" {
				source = "(none, using defaults)"
			}

			fmt.Fprintf(app.stdout, "Project file: %s\n", config.ProjectFileName)
			fmt.Fprintf(app.stdout, "User file:    %s\n", filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			fmt.Fprintf(app.stdout, "In use:       %s\n", source)
			return nil
		},
	})

	return cfgCmd
}
