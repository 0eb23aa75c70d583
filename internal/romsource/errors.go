// SPDX-License-Identifier: MPL-2.0

package romsource

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscovery is the sentinel error wrapped by DiscoveryError.
	ErrDiscovery = errors.New("rom discovery failed")
	// ErrRead is the sentinel error wrapped by ReadError.
	ErrRead = errors.New("rom read failed")
)

type (
	// DiscoveryError is returned when a classification root is missing,
	// is not a directory, or cannot be traversed.
	DiscoveryError struct {
		Group DialectGroup
		Root  string
		Err   error
	}

	// ReadError is returned when a qualifying ROM file cannot be read in full.
	ReadError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface for DiscoveryError.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s roms in %s: %v", e.Group, e.Root, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause so callers can
// match either with errors.Is.
func (e *DiscoveryError) Unwrap() []error {
	return []error{ErrDiscovery, e.Err}
}

// Error implements the error interface for ReadError.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read rom %s: %v", e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ReadError) Unwrap() []error {
	return []error{ErrRead, e.Err}
}
