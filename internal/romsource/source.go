// SPDX-License-Identifier: MPL-2.0

package romsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

type (
	// Roots maps each dialect group to its classification root directory.
	Roots map[DialectGroup]string

	// Options configures a Source.
	Options struct {
		// Roots must contain an entry for every group returned by Groups().
		Roots Roots
		// ExcludePatterns are case-insensitive substrings. A CommunityExamples
		// file whose path relative to the group root contains any of them is
		// skipped. Empty patterns are ignored.
		ExcludePatterns []string
	}

	// RomEntry is a discovered ROM image. It is immutable after discovery.
	RomEntry struct {
		// SourcePath is the absolute path the bytes were read from.
		SourcePath string
		// RelPath is the slash-separated path relative to the group root. It
		// is the sort key for deterministic ordering.
		RelPath string
		// DisplayName is the file base name, used as the catalog label.
		DisplayName string
		// Group is the dialect group the file was found under.
		Group DialectGroup
		// RawBytes holds the full file content.
		RawBytes []byte
	}

	// Result holds the ordered entries of every group.
	Result struct {
		groups [3][]RomEntry
	}

	// Source discovers ROMs for every dialect group.
	Source struct {
		opts Options
	}

	// candidate is a qualifying file found during the walk, not yet read.
	candidate struct {
		abs string
		rel string
	}
)

// New creates a Source from the given options.
func New(opts Options) *Source {
	return &Source{opts: opts}
}

// Qualifies reports whether a file with the given base name is a ROM. Only
// extensionless names qualify.
func Qualifies(name string) bool {
	return name != "" && !strings.Contains(name, ".")
}

// Excluded reports whether path contains any of patterns, ignoring case.
func Excluded(path string, patterns []string) bool {
	lower := strings.ToLower(path)
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(pat)) {
			return true
		}
	}
	return false
}

// Entries returns the entries discovered for g in canonical order.
func (r *Result) Entries(g DialectGroup) []RomEntry {
	if valid, _ := g.IsValid(); !valid {
		return nil
	}
	return r.groups[g]
}

// Count returns the number of entries discovered for g.
func (r *Result) Count(g DialectGroup) int {
	return len(r.Entries(g))
}

// Total returns the number of entries across every group.
func (r *Result) Total() int {
	total := 0
	for _, g := range Groups() {
		total += r.Count(g)
	}
	return total
}

// Discover scans every group root and reads each qualifying file. Groups are
// scanned concurrently; the result is independent of scheduling. The first
// failure in group order is returned.
func (s *Source) Discover(ctx context.Context) (*Result, error) {
	groups := Groups()
	for _, g := range groups {
		if root, ok := s.opts.Roots[g]; !ok || strings.TrimSpace(root) == "" {
			return nil, &DiscoveryError{Group: g, Root: root, Err: errors.New("no root directory configured")}
		}
	}

	var (
		res  Result
		errs = make([]error, len(groups))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	for i, g := range groups {
		eg.Go(func() error {
			entries, err := s.scanGroup(egCtx, g, s.opts.Roots[g])
			if err != nil {
				errs[i] = err
				return err
			}
			res.groups[g] = entries
			return nil
		})
	}
	waitErr := eg.Wait()

	// Report the failure of the earliest group rather than whichever
	// goroutine lost the race; cancellations caused by that failure are
	// skipped.
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}

	return &res, nil
}

// scanGroup walks one root, filters, sorts, and reads the ROMs.
func (s *Source) scanGroup(ctx context.Context, g DialectGroup, root string) ([]RomEntry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Group: g, Root: root, Err: err}
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &DiscoveryError{Group: g, Root: absRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Group: g, Root: absRoot, Err: errors.New("not a directory")}
	}

	var candidates []candidate
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !Qualifies(d.Name()) {
			return nil
		}
		if !isRegularFile(path, d) {
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		rel = filepath.ToSlash(rel)

		if g == CommunityExamples && Excluded(rel, s.opts.ExcludePatterns) {
			slog.Debug("skipping excluded rom", "group", g.String(), "path", rel)
			return nil
		}

		candidates = append(candidates, candidate{abs: path, rel: rel})
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, &DiscoveryError{Group: g, Root: absRoot, Err: walkErr}
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		return strings.Compare(a.rel, b.rel)
	})

	entries := make([]RomEntry, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, readErr := os.ReadFile(c.abs)
		if readErr != nil {
			return nil, &ReadError{Path: c.abs, Err: readErr}
		}
		entries = append(entries, RomEntry{
			SourcePath:  c.abs,
			RelPath:     c.rel,
			DisplayName: filepath.Base(c.abs),
			Group:       g,
			RawBytes:    data,
		})
	}

	slog.Debug("discovered roms", "group", g.String(), "root", absRoot, "count", len(entries))
	return entries, nil
}

// isRegularFile reports whether the walked entry is a regular file. Symlinks
// are followed so a link to a ROM file counts; dangling links and links to
// directories do not.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("skipping unresolvable symlink", "path", path, "error", err)
		return false
	}
	return info.Mode().IsRegular()
}
