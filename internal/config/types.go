// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oxi8/oxi8pack/internal/platform"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPath is the sentinel error wrapped by InvalidPathError.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidFileName is the sentinel error wrapped by InvalidFileNameError.
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrInvalidLayout is the sentinel error wrapped by InvalidLayoutError.
	ErrInvalidLayout = errors.New("invalid output layout")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Path is a filesystem path read from configuration. Relative paths are
	// resolved against the working directory.
	Path string

	// InvalidPathError is returned when a required Path is empty or
	// whitespace-only.
	InvalidPathError struct {
		Field string
		Value Path
	}

	// InvalidFileNameError is returned when a destination name is not a plain
	// file name.
	InvalidFileNameError struct {
		Field string
		Value string
	}

	// InvalidLayoutError is returned when output locations overlap the ROM
	// sources or each other.
	InvalidLayoutError struct {
		Reason string
	}

	// AssetEntry declares one file copied into the bundle.
	AssetEntry struct {
		// Path is the source file.
		Path Path `json:"path" mapstructure:"path"`
		// Name overrides the destination file name (defaults to the base name of Path).
		Name string `json:"name,omitempty" mapstructure:"name"`
	}

	// PrebuildConfig configures the optional script run before packaging.
	PrebuildConfig struct {
		// Script is a POSIX shell script run by the embedded interpreter. Empty disables the hook.
		Script string `json:"script" mapstructure:"script"`
		// Dir is the working directory of the script. Empty uses the current directory.
		Dir Path `json:"dir" mapstructure:"dir"`
	}

	// UIConfig contains user interface settings.
	UIConfig struct {
		// ColorScheme sets the color scheme ("auto", "dark", "light")
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config holds the application configuration. It is constructed once per
	// run and treated as read-only afterwards.
	Config struct {
		// BaseSetRoot holds the original-dialect ROMs.
		BaseSetRoot Path `json:"base_set_root" mapstructure:"base_set_root"`
		// ExtendedSetRoot holds the extended-dialect ROMs.
		ExtendedSetRoot Path `json:"extended_set_root" mapstructure:"extended_set_root"`
		// CommunityRoot holds the community example ROMs.
		CommunityRoot Path `json:"community_root" mapstructure:"community_root"`
		// ExcludePatterns are case-insensitive substrings; community ROMs whose
		// path contains one are skipped.
		ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns"`
		// OutputDir is the bundle directory, re-created on every run.
		OutputDir Path `json:"output_dir" mapstructure:"output_dir"`
		// ArchivePath is the ZIP file written from OutputDir.
		ArchivePath Path `json:"archive_path" mapstructure:"archive_path"`
		// CatalogName is the file name of the catalog inside the bundle.
		CatalogName string `json:"catalog_name" mapstructure:"catalog_name"`
		// CatalogTitle is the heading of the catalog document.
		CatalogTitle string `json:"catalog_title" mapstructure:"catalog_title"`
		// StaticAssets are copied into the bundle verbatim.
		StaticAssets []AssetEntry `json:"static_assets" mapstructure:"static_assets"`
		// CompiledArtifacts are front-end build outputs copied into the bundle.
		CompiledArtifacts []AssetEntry `json:"compiled_artifacts" mapstructure:"compiled_artifacts"`
		// MaxRomSize rejects ROMs larger than this many bytes. Zero disables the limit.
		MaxRomSize int `json:"max_rom_size" mapstructure:"max_rom_size"`
		// Prebuild runs before discovery.
		Prebuild PrebuildConfig `json:"prebuild" mapstructure:"prebuild"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the Path.
func (p Path) String() string { return string(p) }

// IsZero reports whether the path is unset.
func (p Path) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// Abs returns the cleaned absolute form of p.
func (p Path) Abs() (string, error) {
	return filepath.Abs(string(p))
}

// Error implements the error interface for InvalidPathError.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("%s: path %q must be non-empty", e.Field, e.Value)
}

// Unwrap returns ErrInvalidPath for errors.Is() compatibility.
func (e *InvalidPathError) Unwrap() error { return ErrInvalidPath }

// Error implements the error interface for InvalidFileNameError.
func (e *InvalidFileNameError) Error() string {
	return fmt.Sprintf("%s: %q is not a plain file name", e.Field, e.Value)
}

// Unwrap returns ErrInvalidFileName for errors.Is() compatibility.
func (e *InvalidFileNameError) Unwrap() error { return ErrInvalidFileName }

// Error implements the error interface for InvalidLayoutError.
func (e *InvalidLayoutError) Error() string {
	return "invalid output layout: " + e.Reason
}

// Unwrap returns ErrInvalidLayout for errors.Is() compatibility.
func (e *InvalidLayoutError) Unwrap() error { return ErrInvalidLayout }

// IsValid returns whether the AssetEntry has valid fields. The field argument
// prefixes error messages (e.g. "static_assets[2]").
func (a AssetEntry) IsValid(field string) (bool, []error) {
	var errs []error
	if a.Path.IsZero() {
		errs = append(errs, &InvalidPathError{Field: field + ".path", Value: a.Path})
	}
	if a.Name != "" && !isPlainFileName(a.Name) {
		errs = append(errs, &InvalidFileNameError{Field: field + ".name", Value: a.Name})
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// IsValid returns whether the UIConfig has valid fields.
func (c UIConfig) IsValid() (bool, []error) {
	return c.ColorScheme.IsValid()
}

// IsValid returns whether the Config has valid fields. Once every field is
// valid it also checks that the output directory overlaps neither the
// classification roots nor any other input, and that the archive is not
// inside the output directory.
func (c Config) IsValid() (bool, []error) {
	var errs []error

	required := []struct {
		field string
		value Path
	}{
		{"base_set_root", c.BaseSetRoot},
		{"extended_set_root", c.ExtendedSetRoot},
		{"community_root", c.CommunityRoot},
		{"output_dir", c.OutputDir},
		{"archive_path", c.ArchivePath},
	}
	for _, r := range required {
		if r.value.IsZero() {
			errs = append(errs, &InvalidPathError{Field: r.field, Value: r.value})
		}
	}

	if !isPlainFileName(c.CatalogName) {
		errs = append(errs, &InvalidFileNameError{Field: "catalog_name", Value: c.CatalogName})
	}
	for i, a := range c.StaticAssets {
		if valid, fieldErrs := a.IsValid(fmt.Sprintf("static_assets[%d]", i)); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	for i, a := range c.CompiledArtifacts {
		if valid, fieldErrs := a.IsValid(fmt.Sprintf("compiled_artifacts[%d]", i)); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.MaxRomSize < 0 {
		errs = append(errs, fmt.Errorf("max_rom_size: %d must not be negative", c.MaxRomSize))
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}

	if len(errs) == 0 {
		errs = append(errs, c.layoutErrors()...)
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// layoutErrors checks how the output locations relate to the inputs.
func (c Config) layoutErrors() []error {
	out, err := c.OutputDir.Abs()
	if err != nil {
		return []error{fmt.Errorf("output_dir: %w", err)}
	}

	var errs []error
	for _, root := range []Path{c.BaseSetRoot, c.ExtendedSetRoot, c.CommunityRoot} {
		abs, err := root.Abs()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch {
		case abs == out || within(abs, out):
			errs = append(errs, &InvalidLayoutError{Reason: fmt.Sprintf("output_dir %q contains ROM root %q", c.OutputDir, root)})
		case within(out, abs):
			errs = append(errs, &InvalidLayoutError{Reason: fmt.Sprintf("output_dir %q is inside ROM root %q", c.OutputDir, root)})
		}
	}

	errs = append(errs, c.inputsInOutput(out)...)

	archive, err := c.ArchivePath.Abs()
	if err != nil {
		return append(errs, fmt.Errorf("archive_path: %w", err))
	}
	if archive == out || within(archive, out) {
		errs = append(errs, &InvalidLayoutError{Reason: fmt.Sprintf("archive_path %q is inside output_dir %q", c.ArchivePath, c.OutputDir)})
	}
	return errs
}

// inputsInOutput reports assemble inputs that clearing out would delete:
// static assets, compiled artifacts, the prebuild directory and the working
// directory.
func (c Config) inputsInOutput(out string) []error {
	var errs []error
	check := func(field string, p Path) {
		abs, err := p.Abs()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		if abs == out || within(abs, out) {
			errs = append(errs, &InvalidLayoutError{Reason: fmt.Sprintf("output_dir %q contains %s %q", c.OutputDir, field, p)})
		}
	}

	for i, a := range c.StaticAssets {
		check(fmt.Sprintf("static_assets[%d]", i), a.Path)
	}
	for i, a := range c.CompiledArtifacts {
		check(fmt.Sprintf("compiled_artifacts[%d]", i), a.Path)
	}
	if !c.Prebuild.Dir.IsZero() {
		check("prebuild.dir", c.Prebuild.Dir)
	}
	if wd, err := os.Getwd(); err == nil && (wd == out || within(wd, out)) {
		errs = append(errs, &InvalidLayoutError{Reason: fmt.Sprintf("output_dir %q contains the working directory", c.OutputDir)})
	}
	return errs
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return "invalid config: " + e.FieldErrors[0].Error()
	}
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %d field error(s):\n  %s", len(e.FieldErrors), strings.Join(msgs, "\n  "))
}

// Unwrap returns ErrInvalidConfig and the field errors, so errors.Is matches
// both the sentinel and any field-level sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// within reports whether path lies strictly below dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// isPlainFileName reports whether name is a single portable path element.
func isPlainFileName(name string) bool {
	return strings.TrimSpace(name) != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && platform.CheckFileName(name) == nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseSetRoot:       "roms/chip8",
		ExtendedSetRoot:   "roms/schip",
		CommunityRoot:     "roms/octo",
		ExcludePatterns:   []string{"xo"},
		OutputDir:         "dist/web",
		ArchivePath:       "dist/web.zip",
		CatalogName:       "games.html",
		CatalogTitle:      "oxi8 games",
		StaticAssets:      []AssetEntry{},
		CompiledArtifacts: []AssetEntry{},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
