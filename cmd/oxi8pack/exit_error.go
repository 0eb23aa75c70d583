// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// Process exit codes.
const (
	// ExitOK is returned when the command succeeded.
	ExitOK = 0
	// ExitFailure is returned when a build, watch or verify run failed.
	ExitFailure = 1
	// ExitConfig is returned when the configuration could not be loaded or is invalid.
	ExitConfig = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
