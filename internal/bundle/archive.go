// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/klauspost/compress/flate"
)

// zipEpoch is the modification time stamped on every archive entry so
// unchanged bundles produce identical archives.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Archive writes a ZIP of every file in the output directory to ArchivePath
// and returns the archive size. Entries use slash-separated paths relative to
// the output directory with no enclosing folder.
//
// The archive is written to a temporary file next to ArchivePath and renamed
// into place, so a failure never leaves a truncated archive behind.
func (a *Assembler) Archive(ctx context.Context) (size int64, err error) {
	if a.opts.ArchivePath == "" {
		return 0, &AssemblyError{Op: "archive", Path: a.opts.ArchivePath, Err: errors.New("archive path is not configured")}
	}

	files, err := listFiles(a.opts.OutputDir)
	if err != nil {
		return 0, &AssemblyError{Op: "list output", Path: a.opts.OutputDir, Err: err}
	}

	archiveDir := filepath.Dir(a.opts.ArchivePath)
	if err = os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, &AssemblyError{Op: "create archive directory", Path: archiveDir, Err: err}
	}

	tmp, err := os.CreateTemp(archiveDir, ".oxi8pack-*.zip")
	if err != nil {
		return 0, &AssemblyError{Op: "create archive", Path: a.opts.ArchivePath, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) // Best-effort cleanup
		}
	}()

	if err = writeZip(ctx, tmp, a.opts.OutputDir, files); err != nil {
		_ = tmp.Close()
		return 0, &AssemblyError{Op: "write archive", Path: a.opts.ArchivePath, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return 0, &AssemblyError{Op: "close archive", Path: a.opts.ArchivePath, Err: err}
	}
	if err = os.Rename(tmpPath, a.opts.ArchivePath); err != nil {
		return 0, &AssemblyError{Op: "rename archive", Path: a.opts.ArchivePath, Err: err}
	}

	info, err := os.Stat(a.opts.ArchivePath)
	if err != nil {
		return 0, &AssemblyError{Op: "stat archive", Path: a.opts.ArchivePath, Err: err}
	}
	return info.Size(), nil
}

// writeZip streams files (relative to root) into w.
func writeZip(ctx context.Context, w io.Writer, root string, files []string) (err error) {
	zipWriter := zip.NewWriter(w)
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFile(zipWriter, root, rel); err != nil {
			return err
		}
	}
	return nil
}

// addFile writes one file entry.
func addFile(zw *zip.Writer, root, rel string) (err error) {
	path := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = rel
	header.Method = zip.Deflate
	header.Modified = zipEpoch

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(writer, f); err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	return nil
}

// listFiles returns the slash-separated relative paths of every regular file
// under root, sorted.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ReadArchive returns the content of every file entry in the ZIP at path,
// keyed by entry name.
func ReadArchive(path string) (files map[string][]byte, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP file: %w", err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	files = make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, readErr := readEntry(f)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, readErr)
		}
		files[f.Name] = data
	}
	return files, nil
}

func readEntry(f *zip.File) (data []byte, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return io.ReadAll(rc)
}
