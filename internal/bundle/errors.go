// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"errors"
	"fmt"
)

var (
	// ErrAssembly is the sentinel error wrapped by AssemblyError.
	ErrAssembly = errors.New("bundle assembly failed")
	// ErrCollision is the sentinel error wrapped by CollisionError.
	ErrCollision = errors.New("bundle name collision")
	// ErrInputInOutput is wrapped by the AssemblyError returned when an input
	// lies inside the output directory. Nothing has been removed when it is
	// reported.
	ErrInputInOutput = errors.New("input is inside the output directory")
)

type (
	// AssemblyError is returned when a required input is missing or the
	// output directory or archive cannot be written.
	AssemblyError struct {
		// Op is the action that failed (e.g. "stat input", "clear output").
		Op   string
		Path string
		Err  error
	}

	// CollisionError is returned when two inputs map to the same destination
	// name.
	CollisionError struct {
		Name   string
		First  string
		Second string
	}
)

// Error implements the error interface for AssemblyError.
func (e *AssemblyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *AssemblyError) Unwrap() []error {
	return []error{ErrAssembly, e.Err}
}

// Error implements the error interface for CollisionError.
func (e *CollisionError) Error() string {
	return fmt.Sprintf("destination %q is claimed by both %s and %s", e.Name, e.First, e.Second)
}

// Unwrap returns ErrCollision for errors.Is() compatibility.
func (e *CollisionError) Unwrap() error { return ErrCollision }
