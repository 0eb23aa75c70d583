// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a user-facing failure: what oxi8pack was doing, the
	// file it was doing it to, hints for fixing it and the catalog entry
	// rendered under --verbose.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource("./oxi8pack.cue").
	//		WithIssue(issue.ConfigLoadFailedId).
	//		WithSuggestion("Run 'oxi8pack config init' to create one").
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "load configuration".
		Operation   string
		Resource    string
		Suggestions []string
		IssueID     Id
		Cause       error
	}

	// ErrorContext accumulates the fields of an ActionableError.
	ErrorContext struct {
		ae ActionableError
	}
)

// NewErrorContext starts an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := make([]string, 0, 3)
	parts = append(parts, "failed to "+e.Operation)
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders Error followed by one bullet per suggestion. Verbose output
// also lists each link of the cause chain, outermost first.
func (e *ActionableError) Format(verbose bool) string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n")
		for _, s := range e.Suggestions {
			fmt.Fprintf(&sb, "\n  • %s", s)
		}
	}

	if !verbose || e.Cause == nil {
		return sb.String()
	}

	sb.WriteString("\n\nError chain:")
	for depth, err := 1, e.Cause; err != nil; depth, err = depth+1, errors.Unwrap(err) {
		fmt.Fprintf(&sb, "\n  %d. %s", depth, err)
	}
	return sb.String()
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.ae.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.ae.Resource = res
	return c
}

// WithSuggestion appends one hint; repeated calls keep their order.
func (c *ErrorContext) WithSuggestion(s string) *ErrorContext {
	c.ae.Suggestions = append(c.ae.Suggestions, s)
	return c
}

func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.ae.IssueID = id
	return c
}

func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.ae.Cause = err
	return c
}

// BuildError returns the accumulated *ActionableError, or nil when no
// operation was set.
func (c *ErrorContext) BuildError() error {
	if c.ae.Operation == "" {
		return nil
	}
	ae := c.ae
	ae.Suggestions = append([]string(nil), c.ae.Suggestions...)
	return &ae
}
