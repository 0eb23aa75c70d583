// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/oxi8/oxi8pack/internal/cueutil"
	"github.com/oxi8/oxi8pack/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "oxi8pack"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ProjectFileName is the name of the config file looked up in the
	// working directory.
	ProjectFileName = AppName + ".cue"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides (OXI8PACK_OUTPUT_DIR, ...).
	EnvPrefix = "OXI8PACK"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the oxi8pack configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Resolve returns the config file that Load would read for opts, or "" when
// none exists and defaults apply.
func Resolve(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'oxi8pack config init' to write a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	local := ProjectFileName
	if opts.BaseDir != "" {
		local = filepath.Join(opts.BaseDir, ProjectFileName)
	}
	if fileExists(local) {
		return local, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	userPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(userPath) {
		return userPath, nil
	}

	return "", nil
}

// loadWithOptions performs option-driven config loading. Precedence, lowest
// first: built-in defaults, the resolved CUE file, OXI8PACK_* environment
// variables.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath, err := Resolve(opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'oxi8pack config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Keep output_dir outside the ROM roots and archive_path outside output_dir").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a Viper instance with defaults and environment overrides
// registered.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("base_set_root", string(defaults.BaseSetRoot))
	v.SetDefault("extended_set_root", string(defaults.ExtendedSetRoot))
	v.SetDefault("community_root", string(defaults.CommunityRoot))
	v.SetDefault("exclude_patterns", defaults.ExcludePatterns)
	v.SetDefault("output_dir", string(defaults.OutputDir))
	v.SetDefault("archive_path", string(defaults.ArchivePath))
	v.SetDefault("catalog_name", defaults.CatalogName)
	v.SetDefault("catalog_title", defaults.CatalogTitle)
	v.SetDefault("static_assets", []map[string]any{})
	v.SetDefault("compiled_artifacts", []map[string]any{})
	v.SetDefault("max_rom_size", defaults.MaxRomSize)
	v.SetDefault("prebuild.script", defaults.Prebuild.Script)
	v.SetDefault("prebuild.dir", string(defaults.Prebuild.Dir))
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper. Fields are decoded to a map rather than a struct so unset keys keep
// their Viper defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.Decode(configSchema, "#Config", data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteFile renders cfg as CUE to path, creating parent directories. An
// existing file is only replaced when force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// oxi8pack configuration\n\n")

	sb.WriteString("// ROM classification roots\n")
	fmt.Fprintf(&sb, "base_set_root:     %q\n", cfg.BaseSetRoot)
	fmt.Fprintf(&sb, "extended_set_root: %q\n", cfg.ExtendedSetRoot)
	fmt.Fprintf(&sb, "community_root:    %q\n", cfg.CommunityRoot)
	sb.WriteString("exclude_patterns: [")
	for i, p := range cfg.ExcludePatterns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("]\n")

	sb.WriteString("\n// Bundle output\n")
	fmt.Fprintf(&sb, "output_dir:    %q\n", cfg.OutputDir)
	fmt.Fprintf(&sb, "archive_path:  %q\n", cfg.ArchivePath)
	fmt.Fprintf(&sb, "catalog_name:  %q\n", cfg.CatalogName)
	fmt.Fprintf(&sb, "catalog_title: %q\n", cfg.CatalogTitle)
	fmt.Fprintf(&sb, "max_rom_size:  %d\n", cfg.MaxRomSize)

	writeAssets(&sb, "static_assets", cfg.StaticAssets)
	writeAssets(&sb, "compiled_artifacts", cfg.CompiledArtifacts)

	sb.WriteString("\nprebuild: {\n")
	fmt.Fprintf(&sb, "\tscript: %q\n", cfg.Prebuild.Script)
	fmt.Fprintf(&sb, "\tdir:    %q\n", cfg.Prebuild.Dir)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func writeAssets(sb *strings.Builder, key string, assets []AssetEntry) {
	if len(assets) == 0 {
		fmt.Fprintf(sb, "\n%s: []\n", key)
		return
	}
	fmt.Fprintf(sb, "\n%s: [\n", key)
	for _, a := range assets {
		if a.Name != "" {
			fmt.Fprintf(sb, "\t{path: %q, name: %q},\n", a.Path, a.Name)
		} else {
			fmt.Fprintf(sb, "\t{path: %q},\n", a.Path)
		}
	}
	sb.WriteString("]\n")
}
