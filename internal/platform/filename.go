// SPDX-License-Identifier: MPL-2.0

// Package platform checks file names against the operating systems a bundle
// may be unpacked on.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonPortableName is the sentinel error wrapped by NonPortableNameError.
var ErrNonPortableName = errors.New("file name is not portable")

type (
	// NonPortableNameError is returned when a file name cannot be created on
	// every supported platform.
	NonPortableNameError struct {
		Name   string
		Reason string
	}
)

// windowsReservedNames are device names Windows reserves regardless of
// extension.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Error implements the error interface for NonPortableNameError.
func (e *NonPortableNameError) Error() string {
	return fmt.Sprintf("file name %q %s", e.Name, e.Reason)
}

// Unwrap returns ErrNonPortableName for errors.Is() compatibility.
func (e *NonPortableNameError) Unwrap() error { return ErrNonPortableName }

// IsWindowsReservedName reports whether name, ignoring any extension, is a
// reserved Windows device name.
func IsWindowsReservedName(name string) bool {
	upper := strings.ToUpper(name)
	if idx := strings.Index(upper, "."); idx != -1 {
		upper = upper[:idx]
	}
	return windowsReservedNames[upper]
}

// CheckFileName returns a *NonPortableNameError when name is a reserved
// device name, holds a character Windows rejects, or ends in a dot or space.
// Path separators are not checked here.
func CheckFileName(name string) error {
	if IsWindowsReservedName(name) {
		return &NonPortableNameError{Name: name, Reason: "is a reserved device name on Windows"}
	}
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(`<>:"|?*`, r) {
			return &NonPortableNameError{Name: name, Reason: fmt.Sprintf("contains %q", r)}
		}
	}
	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, " ") {
		return &NonPortableNameError{Name: name, Reason: "ends in a dot or space"}
	}
	return nil
}
