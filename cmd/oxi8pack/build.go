// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oxi8/oxi8pack/internal/config"
	"github.com/oxi8/oxi8pack/internal/pipeline"
	"github.com/oxi8/oxi8pack/internal/romsource"
	"github.com/oxi8/oxi8pack/internal/watch"
)

// buildFlagValues holds the build command's flags. Each one overrides the
// matching configuration key only when set on the command line.
type buildFlagValues struct {
	watch        bool
	debounce     time.Duration
	baseDir      string
	schipDir     string
	octoDir      string
	exclude      []string
	outputDir    string
	archivePath  string
	catalogName  string
	title        string
	static       []string
	compiled     []string
	maxRomSize   int
	prebuild     string
	prebuildDir  string
	skipPrebuild bool
}

func newBuildCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &buildFlagValues{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the ROM catalog and assemble the web bundle",
		Long: `Generate the ROM catalog and assemble the web bundle.

Every run is a full rebuild: ROMs are rediscovered, the catalog is rendered
again and the output directory and archive are replaced. With --watch the
build repeats whenever a ROM or input asset changes.

Assets given with --static or --compiled take the form PATH or PATH=NAME,
where NAME is the file name used inside the bundle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, app, rootFlags, flags)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&flags.watch, "watch", "w", false, "rebuild whenever inputs change")
	f.DurationVar(&flags.debounce, "debounce", 0, "quiet period before a watch rebuild (default 500ms)")
	f.StringVar(&flags.baseDir, "base-dir", "", "directory of base CHIP-8 ROMs")
	f.StringVar(&flags.schipDir, "schip-dir", "", "directory of SUPER-CHIP ROMs")
	f.StringVar(&flags.octoDir, "octo-dir", "", "directory of Octo example ROMs")
	f.StringSliceVar(&flags.exclude, "exclude", nil, "substrings excluding community ROMs (case-insensitive)")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "bundle output directory")
	f.StringVarP(&flags.archivePath, "archive", "a", "", "bundle zip archive path")
	f.StringVar(&flags.catalogName, "catalog-name", "", "catalog file name inside the bundle")
	f.StringVar(&flags.title, "title", "", "catalog page title")
	f.StringArrayVar(&flags.static, "static", nil, "static asset to copy, PATH or PATH=NAME (repeatable)")
	f.StringArrayVar(&flags.compiled, "compiled", nil, "compiled front-end artifact, PATH or PATH=NAME (repeatable)")
	f.IntVar(&flags.maxRomSize, "max-rom-size", 0, "largest ROM size in bytes, 0 for no limit")
	f.StringVar(&flags.prebuild, "prebuild", "", "shell script to run before discovery")
	f.StringVar(&flags.prebuildDir, "prebuild-dir", "", "working directory for the prebuild script")
	f.BoolVar(&flags.skipPrebuild, "no-prebuild", false, "skip the configured prebuild script")
	cmd.MarkFlagsMutuallyExclusive("prebuild", "no-prebuild")

	return cmd
}

func runBuild(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *buildFlagValues) error {
	ctx := cmd.Context()

	cfg, verbose, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		cmd.SilenceErrors = true
		return err
	}

	if err := flags.apply(cmd.Flags(), cfg); err != nil {
		cmd.SilenceErrors = true
		return app.fail(configServiceError(err), ExitConfig, verbose)
	}

	if !flags.watch {
		if err := buildOnce(ctx, app, cfg, verbose); err != nil {
			cmd.SilenceErrors = true
			return err
		}
		return nil
	}

	if err := runWatch(ctx, app, cfg, flags.debounce, verbose); err != nil {
		cmd.SilenceErrors = true
		return err
	}
	return nil
}

// apply copies the flags that were set onto cfg and validates the result.
func (f *buildFlagValues) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	set := fs.Changed

	if set("base-dir") {
		cfg.BaseSetRoot = config.Path(f.baseDir)
	}
	if set("schip-dir") {
		cfg.ExtendedSetRoot = config.Path(f.schipDir)
	}
	if set("octo-dir") {
		cfg.CommunityRoot = config.Path(f.octoDir)
	}
	if set("exclude") {
		cfg.ExcludePatterns = f.exclude
	}
	if set("output-dir") {
		cfg.OutputDir = config.Path(f.outputDir)
	}
	if set("archive") {
		cfg.ArchivePath = config.Path(f.archivePath)
	}
	if set("catalog-name") {
		cfg.CatalogName = f.catalogName
	}
	if set("title") {
		cfg.CatalogTitle = f.title
	}
	if set("static") {
		cfg.StaticAssets = parseAssets(f.static)
	}
	if set("compiled") {
		cfg.CompiledArtifacts = parseAssets(f.compiled)
	}
	if set("max-rom-size") {
		cfg.MaxRomSize = f.maxRomSize
	}
	if set("prebuild") {
		cfg.Prebuild.Script = f.prebuild
	}
	if set("prebuild-dir") {
		cfg.Prebuild.Dir = config.Path(f.prebuildDir)
	}
	if f.skipPrebuild {
		cfg.Prebuild.Script = ""
	}

	if isValid, errs := cfg.IsValid(); !isValid {
		return errs[0]
	}
	return nil
}

// parseAssets turns PATH or PATH=NAME values into asset entries. The last
// '=' separates the name so paths may contain '='.
func parseAssets(values []string) []config.AssetEntry {
	assets := make([]config.AssetEntry, 0, len(values))
	for _, v := range values {
		entry := config.AssetEntry{Path: config.Path(v)}
		if i := strings.LastIndex(v, "="); i > 0 {
			entry = config.AssetEntry{Path: config.Path(v[:i]), Name: v[i+1:]}
		}
		assets = append(assets, entry)
	}
	return assets
}

// buildOnce runs a single pipeline pass and prints its summary.
func buildOnce(ctx context.Context, app *App, cfg *config.Config, verbose bool) error {
	report, err := app.Builder.Build(ctx, cfg,
		pipeline.WithOutput(app.stdout, app.stderr),
		pipeline.WithLogger(app.Logger()),
	)
	if err != nil {
		return app.fail(pipelineServiceError(err), ExitFailure, verbose)
	}

	renderReport(app.stdout, report)
	return nil
}

// renderReport prints the per-group counts and bundle locations.
func renderReport(w io.Writer, report *pipeline.Report) {
	fmt.Fprintln(w, SuccessStyle.Render("✓")+" "+TitleStyle.Render("Bundle built"))

	total := 0
	for _, g := range romsource.Groups() {
		n := report.Counts[g]
		total += n
		fmt.Fprintf(w, "  %-20s %d\n", groupLabel(g), n)
	}
	fmt.Fprintf(w, "  %-20s %d\n", "Total ROMs", total)

	fmt.Fprintf(w, "\n  %s %s (%d files)\n", SubtitleStyle.Render("Output: "), CmdStyle.Render(report.OutputDir), len(report.Files))
	fmt.Fprintf(w, "  %s %s (%s)\n", SubtitleStyle.Render("Archive:"), CmdStyle.Render(report.ArchivePath), humanize.Bytes(uint64(max(report.ArchiveSize, 0))))
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("Took:   "), report.Duration.Round(time.Millisecond))
}

func groupLabel(g romsource.DialectGroup) string {
	if h := g.Heading(); h != "" {
		return h
	}
	return "CHIP-8 Games"
}

// runWatch builds once and then rebuilds on every change until ctx is done.
// A failed build is reported and watching continues.
func runWatch(ctx context.Context, app *App, cfg *config.Config, debounce time.Duration, verbose bool) error {
	logger := app.Logger()

	if err := buildOnce(ctx, app, cfg, verbose); err != nil {
		logger.Warn("initial build failed, waiting for changes")
	}

	roots, files := watchTargets(cfg)
	ignoreOutput := outputFilter(cfg)

	w, err := watch.New(watch.Config{
		Roots:    roots,
		Files:    files,
		Debounce: debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			changed = ignoreOutput(changed)
			if len(changed) == 0 {
				return nil
			}
			fmt.Fprintf(app.stdout, "\n%s %d file(s) changed, rebuilding\n", WarningStyle.Render("↻"), len(changed))
			for _, path := range changed {
				logger.Debug("changed", "path", path)
			}
			if err := buildOnce(ctx, app, cfg, verbose); err != nil {
				return err
			}
			return nil
		},
	})
	if err != nil {
		return app.fail(newServiceError(err, 0, ""), ExitFailure, verbose)
	}

	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Watching for changes, press Ctrl+C to stop"))
	if err := w.Run(ctx); err != nil {
		return app.fail(newServiceError(err, 0, ""), ExitFailure, verbose)
	}
	return nil
}

// watchTargets lists what watch mode observes. Compiled artifacts are left
// out when a prebuild script is configured, since that script regenerates
// them on every run.
func watchTargets(cfg *config.Config) (roots, files []string) {
	for _, g := range romsource.Groups() {
		if root := pipeline.RootsFor(cfg)[g]; root != "" {
			roots = append(roots, root)
		}
	}
	for _, a := range cfg.StaticAssets {
		files = append(files, a.Path.String())
	}
	if cfg.Prebuild.Script == "" {
		for _, a := range cfg.CompiledArtifacts {
			files = append(files, a.Path.String())
		}
	}
	return roots, files
}

// outputFilter drops paths the build itself writes: anything under the
// output directory and the archive.
func outputFilter(cfg *config.Config) func([]string) []string {
	outDir, _ := cfg.OutputDir.Abs()
	archive, _ := cfg.ArchivePath.Abs()
	return func(changed []string) []string {
		kept := changed[:0:0]
		for _, path := range changed {
			if path == archive || path == outDir || strings.HasPrefix(path, outDir+string(filepath.Separator)) {
				continue
			}
			kept = append(kept, path)
		}
		return kept
	}
}
