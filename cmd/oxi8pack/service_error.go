// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/oxi8/oxi8pack/internal/issue"
	"github.com/oxi8/oxi8pack/internal/pipeline"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer: a pre-styled message and an issue catalog entry.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// pipelineServiceError turns a pipeline failure into a ServiceError whose
// styled message names the failing stage and path.
func pipelineServiceError(err error) *ServiceError {
	var se *pipeline.StageError
	if !errors.As(err, &se) {
		return newServiceError(err, 0, ErrorStyle.Render("✗ Build failed: ")+err.Error()+"\n")
	}

	msg := ErrorStyle.Render(fmt.Sprintf("✗ %s failed", se.Stage))
	if se.Path != "" {
		msg += " at " + CmdStyle.Render(se.Path)
	}
	msg += "\n  " + se.Err.Error() + "\n"
	return newServiceError(err, se.IssueID(), msg)
}

// configServiceError wraps a configuration load or validation failure.
func configServiceError(err error) *ServiceError {
	return newServiceError(err, issue.ConfigLoadFailedId, ErrorStyle.Render("✗ Configuration error: ")+formatErrorForDisplay(err, false)+"\n")
}

// renderServiceError prints the styled message and, in verbose mode, the
// issue catalog entry rendered with the given glamour style. Without a styled
// message the error text is printed.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, verbose bool, style string) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	} else {
		fmt.Fprintln(stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(svcErr.Err, verbose))
	}

	if !verbose || svcErr.IssueID == 0 {
		if svcErr.IssueID != 0 {
			fmt.Fprintln(stderr, SubtitleStyle.Render("Run with --verbose for troubleshooting help."))
		}
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// include their suggestions; verbose mode adds the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
