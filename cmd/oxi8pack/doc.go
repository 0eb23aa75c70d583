// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the oxi8pack command-line interface: building the web
// bundle, verifying an archive and managing configuration.
package cmd
