// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/oxi8/oxi8pack/internal/bundle"
	"github.com/oxi8/oxi8pack/internal/catalog"
	"github.com/oxi8/oxi8pack/internal/config"
	"github.com/oxi8/oxi8pack/internal/romsource"
)

type (
	// Pipeline runs the packaging stages for one configuration.
	Pipeline struct {
		cfg       *config.Config
		source    *romsource.Source
		builder   *catalog.Builder
		assembler *bundle.Assembler
		stdout    io.Writer
		stderr    io.Writer
		logger    *slog.Logger
	}

	// Option customizes a Pipeline.
	Option func(*Pipeline)

	// Report summarizes a successful run.
	Report struct {
		// Counts is the number of ROMs per dialect group.
		Counts map[romsource.DialectGroup]int
		// CatalogPath is the catalog file inside OutputDir.
		CatalogPath string
		OutputDir   string
		ArchivePath string
		// Files are the bundle file names in sorted order.
		Files       []string
		ArchiveSize int64
		Duration    time.Duration
	}
)

// WithOutput sets where the prebuild script writes. Defaults discard output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(p *Pipeline) {
		p.stdout = stdout
		p.stderr = stderr
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline. cfg is read, never modified.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg: cfg,
		source: romsource.New(romsource.Options{
			Roots:           RootsFor(cfg),
			ExcludePatterns: cfg.ExcludePatterns,
		}),
		builder: catalog.NewBuilder(catalog.Options{
			Title:      cfg.CatalogTitle,
			MaxRomSize: cfg.MaxRomSize,
		}),
		assembler: bundle.NewAssembler(bundle.Options{
			OutputDir:   string(cfg.OutputDir),
			ArchivePath: string(cfg.ArchivePath),
		}),
		stdout: io.Discard,
		stderr: io.Discard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RootsFor maps the configured classification roots to dialect groups.
func RootsFor(cfg *config.Config) romsource.Roots {
	return romsource.Roots{
		romsource.BaseSet:           string(cfg.BaseSetRoot),
		romsource.ExtendedSet:       string(cfg.ExtendedSetRoot),
		romsource.CommunityExamples: string(cfg.CommunityRoot),
	}
}

// Run executes every stage in order. On failure it returns a *StageError
// and, if the failure happened while assembling or archiving, removes the
// output directory and archive.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	if p.cfg.Prebuild.Script != "" {
		p.logger.Info("running prebuild script", "dir", p.cfg.Prebuild.Dir.String())
		if err := RunScript(ctx, p.cfg.Prebuild.Script, string(p.cfg.Prebuild.Dir), p.stdout, p.stderr); err != nil {
			se := stageError(StagePrebuild, err)
			se.Path = p.cfg.Prebuild.Dir.String()
			return nil, se
		}
	}

	result, err := p.source.Discover(ctx)
	if err != nil {
		return nil, stageError(StageDiscover, err)
	}

	doc, err := p.builder.RenderBytes(catalog.FromResult(result))
	if err != nil {
		return nil, stageError(StageRender, err)
	}

	files, err := p.assemble(ctx, doc)
	if err != nil {
		return nil, p.fail(StageAssemble, err)
	}

	size, err := p.assembler.Archive(ctx)
	if err != nil {
		return nil, p.fail(StageArchive, err)
	}

	report := &Report{
		Counts:      make(map[romsource.DialectGroup]int, len(romsource.Groups())),
		CatalogPath: filepath.Join(p.assembler.OutputDir(), p.cfg.CatalogName),
		OutputDir:   p.assembler.OutputDir(),
		ArchivePath: p.assembler.ArchivePath(),
		Files:       files,
		ArchiveSize: size,
		Duration:    time.Since(start),
	}
	for _, g := range romsource.Groups() {
		report.Counts[g] = result.Count(g)
	}

	p.logger.Info("bundle written", "roms", result.Total(), "files", len(files), "archive", report.ArchivePath)
	return report, nil
}

// assemble builds the manifest and writes the output directory.
func (p *Pipeline) assemble(ctx context.Context, doc []byte) ([]string, error) {
	m, err := bundle.NewManifest(p.cfg.CatalogName, doc, assets(p.cfg.StaticAssets), assets(p.cfg.CompiledArtifacts))
	if err != nil {
		return nil, err
	}
	if err := p.assembler.Assemble(ctx, m); err != nil {
		return nil, err
	}
	return m.Names(), nil
}

// fail discards any output and wraps err for stage. An input inside the
// output directory is reported without discarding.
func (p *Pipeline) fail(stage Stage, err error) error {
	se := stageError(stage, err)
	if errors.Is(err, bundle.ErrInputInOutput) {
		return se
	}
	if discardErr := p.assembler.Discard(); discardErr != nil {
		p.logger.Warn("failed to remove partial output", "error", discardErr)
		se.Err = errors.Join(se.Err, discardErr)
	}
	return se
}

func assets(entries []config.AssetEntry) []bundle.Asset {
	out := make([]bundle.Asset, 0, len(entries))
	for _, e := range entries {
		out = append(out, bundle.Asset{Path: string(e.Path), Name: e.Name})
	}
	return out
}
