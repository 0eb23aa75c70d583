// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/oxi8/oxi8pack/internal/platform"
)

const (
	// OriginCatalog is the generated catalog document.
	OriginCatalog Origin = iota
	// OriginStatic is a static asset copied verbatim.
	OriginStatic
	// OriginCompiled is an externally compiled front-end artifact.
	OriginCompiled
)

type (
	// Origin identifies where a bundle entry came from.
	Origin int

	// Asset is a file input declared in configuration.
	Asset struct {
		// Path is the source file.
		Path string
		// Name overrides the destination file name. Empty uses the base
		// name of Path.
		Name string
	}

	// Entry is one file of the bundle.
	Entry struct {
		// Name is the destination file name inside the output directory.
		Name   string
		Origin Origin
		// SourcePath is the file copied into the bundle. Empty for entries
		// held in Data.
		SourcePath string
		Data       []byte
	}

	// Manifest is the set of bundle entries keyed by destination name.
	Manifest struct {
		entries []Entry
		// byName maps lower-cased destination names to entry indexes.
		byName map[string]int
	}
)

// String returns a human-readable origin name.
func (o Origin) String() string {
	switch o {
	case OriginCatalog:
		return "catalog"
	case OriginStatic:
		return "static asset"
	case OriginCompiled:
		return "compiled artifact"
	default:
		return "unknown"
	}
}

// DestName returns the destination file name for the asset.
func (a Asset) DestName() string {
	if a.Name != "" {
		return a.Name
	}
	return filepath.Base(a.Path)
}

// NewManifest builds the manifest for a catalog plus the static and compiled
// inputs. It fails on the first invalid or colliding destination name.
func NewManifest(catalogName string, catalog []byte, static, compiled []Asset) (*Manifest, error) {
	m := &Manifest{byName: make(map[string]int)}

	if err := m.Add(Entry{Name: catalogName, Origin: OriginCatalog, Data: catalog}); err != nil {
		return nil, err
	}
	for _, a := range static {
		if err := m.Add(Entry{Name: a.DestName(), Origin: OriginStatic, SourcePath: a.Path}); err != nil {
			return nil, err
		}
	}
	for _, a := range compiled {
		if err := m.Add(Entry{Name: a.DestName(), Origin: OriginCompiled, SourcePath: a.Path}); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Add registers e. Destination names must be plain file names, unique
// ignoring case.
func (m *Manifest) Add(e Entry) error {
	if m.byName == nil {
		m.byName = make(map[string]int)
	}
	if err := validateName(e.Name); err != nil {
		return &AssemblyError{Op: "add " + e.Origin.String(), Path: e.path(), Err: err}
	}
	key := strings.ToLower(e.Name)
	if idx, exists := m.byName[key]; exists {
		return &CollisionError{Name: e.Name, First: describe(m.entries[idx]), Second: describe(e)}
	}
	m.byName[key] = len(m.entries)
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns the entries sorted by destination name.
func (m *Manifest) Entries() []Entry {
	out := slices.Clone(m.entries)
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Names returns the destination names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.entries))
	for _, e := range m.Entries() {
		names = append(names, e.Name)
	}
	return names
}

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.entries) }

// validateName rejects names that would escape or nest inside the flat
// output directory, or that could not be unpacked on every platform.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("destination name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("destination name %q is not a file name", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("destination name %q contains a path separator", name)
	}
	return platform.CheckFileName(name)
}

// path returns the source path of e, or its name for in-memory entries.
func (e Entry) path() string {
	if e.SourcePath != "" {
		return e.SourcePath
	}
	return e.Name
}

// describe names an entry for error messages.
func describe(e Entry) string {
	if e.SourcePath != "" {
		return fmt.Sprintf("%s %s", e.Origin, e.SourcePath)
	}
	return e.Origin.String()
}
