// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// The configuration file is looked up as an explicit path, then oxi8pack.cue in
// the working directory, then config.cue in the user config directory
// (~/.config/oxi8pack on Linux, ~/Library/Application Support/oxi8pack on macOS,
// %APPDATA%\oxi8pack on Windows). Files are validated against an embedded CUE
// schema (config_schema.cue). OXI8PACK_* environment variables override file
// values.
package config
