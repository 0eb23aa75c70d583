// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/oxi8/oxi8pack/internal/bundle"
	"github.com/oxi8/oxi8pack/internal/catalog"
	"github.com/oxi8/oxi8pack/internal/issue"
	"github.com/oxi8/oxi8pack/internal/linkenc"
)

type (
	verifyFlagValues struct {
		catalogName string
	}

	// verifyResult summarizes a successful archive check.
	verifyResult struct {
		files    int
		links    int
		romBytes int
	}

	// linkError reports a catalog link whose token does not decode.
	linkError struct {
		name string
		err  error
	}
)

func (e *linkError) Error() string {
	return fmt.Sprintf("link %q: %v", e.name, e.err)
}

func (e *linkError) Unwrap() error { return e.err }

func newVerifyCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &verifyFlagValues{}

	cmd := &cobra.Command{
		Use:   "verify [archive]",
		Short: "Check that a bundle archive holds a readable catalog",
		Long: `Check that a bundle archive holds a readable catalog.

The archive is read in memory, the catalog is located and every ROM link is
decoded back to bytes. Without an argument the configured archive_path is
checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, verbose, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				cmd.SilenceErrors = true
				return err
			}

			archivePath := cfg.ArchivePath.String()
			if len(args) == 1 {
				archivePath = args[0]
			}
			catalogName := cfg.CatalogName
			if cmd.Flags().Changed("catalog-name") {
				catalogName = flags.catalogName
			}

			res, err := verifyArchive(archivePath, catalogName)
			if err != nil {
				cmd.SilenceErrors = true
				msg := ErrorStyle.Render("✗ Archive check failed: ") + CmdStyle.Render(archivePath) + "\n  " + err.Error() + "\n"
				return app.fail(newServiceError(err, issue.ArchiveInvalidId, msg), ExitFailure, verbose)
			}

			fmt.Fprintf(app.stdout, "%s %s: %d files, %d ROM links, %s of ROM data\n",
				SuccessStyle.Render("✓"),
				CmdStyle.Render(archivePath),
				res.files, res.links, humanize.Bytes(uint64(res.romBytes)))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.catalogName, "catalog-name", "", "catalog file name inside the archive")

	return cmd
}

// verifyArchive reads the archive at path, locates catalogName and decodes
// every link token.
func verifyArchive(path, catalogName string) (verifyResult, error) {
	files, err := bundle.ReadArchive(path)
	if err != nil {
		return verifyResult{}, err
	}

	doc, ok := files[catalogName]
	if !ok {
		return verifyResult{}, fmt.Errorf("catalog %q not found in archive", catalogName)
	}

	links := catalog.ParseLinks(doc)

	res := verifyResult{files: len(files), links: len(links)}
	for _, l := range links {
		raw, err := linkenc.Decode(l.Token)
		if err != nil {
			return verifyResult{}, &linkError{name: l.Name, err: err}
		}
		res.romBytes += len(raw)
	}
	return res, nil
}
