// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type (
	// Options configures an Assembler.
	Options struct {
		// OutputDir is the bundle directory. It is removed and re-created on
		// every Assemble.
		OutputDir string
		// ArchivePath is the ZIP file written by Archive.
		ArchivePath string
	}

	// Assembler writes a Manifest to disk and archives the result.
	Assembler struct {
		opts Options
	}
)

// NewAssembler creates an Assembler.
func NewAssembler(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// OutputDir returns the bundle directory.
func (a *Assembler) OutputDir() string { return a.opts.OutputDir }

// ArchivePath returns the archive location.
func (a *Assembler) ArchivePath() string { return a.opts.ArchivePath }

// Assemble writes every manifest entry into a fresh output directory.
//
// All file inputs are checked before anything is removed, so this package
// does not remove the previous bundle when an input is missing or lies inside
// the output directory. The build pipeline does: it calls Discard after a
// missing input, and skips it for ErrInputInOutput where that would delete the
// input. Once writing starts, the previous directory and archive are gone; a
// failure after that point leaves a partial directory the caller must Discard.
func (a *Assembler) Assemble(ctx context.Context, m *Manifest) error {
	if a.opts.OutputDir == "" {
		return &AssemblyError{Op: "prepare output", Path: a.opts.OutputDir, Err: errors.New("output directory is not configured")}
	}

	outDir, err := filepath.Abs(a.opts.OutputDir)
	if err != nil {
		return &AssemblyError{Op: "prepare output", Path: a.opts.OutputDir, Err: err}
	}

	entries := m.Entries()
	for _, e := range entries {
		if e.SourcePath == "" {
			continue
		}
		if src, err := filepath.Abs(e.SourcePath); err == nil && (src == outDir || inside(src, outDir)) {
			return &AssemblyError{Op: "check " + e.Origin.String(), Path: e.SourcePath, Err: ErrInputInOutput}
		}
		info, err := os.Stat(e.SourcePath)
		if err != nil {
			return &AssemblyError{Op: "stat " + e.Origin.String(), Path: e.SourcePath, Err: err}
		}
		if !info.Mode().IsRegular() {
			return &AssemblyError{Op: "stat " + e.Origin.String(), Path: e.SourcePath, Err: errors.New("not a regular file")}
		}
	}

	if err := a.clear(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.opts.OutputDir, 0o755); err != nil {
		return &AssemblyError{Op: "create output", Path: a.opts.OutputDir, Err: err}
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest := filepath.Join(a.opts.OutputDir, e.Name)
		if e.SourcePath == "" {
			if err := os.WriteFile(dest, e.Data, 0o644); err != nil {
				return &AssemblyError{Op: "write " + e.Origin.String(), Path: dest, Err: err}
			}
		} else if err := copyFile(e.SourcePath, dest); err != nil {
			return &AssemblyError{Op: "copy " + e.Origin.String(), Path: e.SourcePath, Err: err}
		}
		slog.Debug("bundled file", "name", e.Name, "origin", e.Origin.String())
	}

	return nil
}

// Discard removes the output directory and archive. It is used after a
// failed run so a partial bundle is never mistaken for a valid one.
func (a *Assembler) Discard() error {
	var errs []error
	if a.opts.OutputDir != "" {
		if err := os.RemoveAll(a.opts.OutputDir); err != nil {
			errs = append(errs, err)
		}
	}
	if a.opts.ArchivePath != "" {
		if err := os.Remove(a.opts.ArchivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// clear removes the previous run's directory and archive.
func (a *Assembler) clear() error {
	if err := os.RemoveAll(a.opts.OutputDir); err != nil {
		return &AssemblyError{Op: "clear output", Path: a.opts.OutputDir, Err: err}
	}
	if a.opts.ArchivePath != "" {
		if err := os.Remove(a.opts.ArchivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &AssemblyError{Op: "clear archive", Path: a.opts.ArchivePath, Err: err}
		}
	}
	return nil
}

// inside reports whether path lies below dir.
func inside(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// copyFile copies src to dst byte for byte.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return nil
}
