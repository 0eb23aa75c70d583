// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "assemble bundle"},
			expected: "failed to assemble bundle",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "./oxi8pack.cue",
			},
			expected: "failed to load configuration: ./oxi8pack.cue",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "discover ROMs",
				Cause:     errors.New("root does not exist"),
			},
			expected: "failed to discover ROMs: root does not exist",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "./oxi8pack.cue",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load configuration: ./oxi8pack.cue: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_ErrorsAsThroughWrapping(t *testing.T) {
	err := NewErrorContext().WithOperation("build").WithIssue(AssemblyFailedId).BuildError()
	wrapped := fmt.Errorf("outer: %w", err)

	var got *ActionableError
	if !errors.As(wrapped, &got) {
		t.Fatal("errors.As should find the ActionableError")
	}
	if got.IssueID != AssemblyFailedId {
		t.Errorf("IssueID = %d, want %d", got.IssueID, AssemblyFailedId)
	}
}

func TestActionableError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error non-verbose",
			err:      &ActionableError{Operation: "load configuration"},
			contains: []string{"failed to load configuration"},
		},
		{
			name: "error with suggestions",
			err: &ActionableError{
				Operation:   "assemble bundle",
				Resource:    "target/deploy/oxi8.wasm",
				Suggestions: []string{"Build the front-end first", "Check file permissions"},
			},
			contains: []string{
				"failed to assemble bundle",
				"target/deploy/oxi8.wasm",
				"• Build the front-end first",
				"• Check file permissions",
			},
		},
		{
			name: "error chain in verbose mode",
			err: &ActionableError{
				Operation: "parse config",
				Cause:     fmt.Errorf("line 5: %w", errors.New("syntax error")),
			},
			verbose:  true,
			contains: []string{"Error chain:", "1. line 5: syntax error", "2. syntax error"},
		},
		{
			name: "no error chain in non-verbose mode",
			err: &ActionableError{
				Operation: "parse config",
				Cause:     errors.New("syntax error"),
			},
			excludes: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() = %q, should contain %q", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("Format() = %q, should not contain %q", got, unwanted)
				}
			}
		})
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	cause := errors.New("boom")
	ctx := NewErrorContext().
		WithOperation("load configuration").
		WithResource("/etc/oxi8pack/config.cue").
		WithSuggestion("first").
		WithSuggestion("second").
		WithIssue(ConfigLoadFailedId).
		Wrap(cause)
	built := ctx.BuildError()

	var err *ActionableError
	if !errors.As(built, &err) {
		t.Fatalf("BuildError() = %T, want *ActionableError", built)
	}
	if err.Operation != "load configuration" {
		t.Errorf("Operation = %q", err.Operation)
	}
	if err.Resource != "/etc/oxi8pack/config.cue" {
		t.Errorf("Resource = %q", err.Resource)
	}
	if len(err.Suggestions) != 2 || err.Suggestions[0] != "first" || err.Suggestions[1] != "second" {
		t.Errorf("Suggestions = %v, want [first second]", err.Suggestions)
	}
	if err.IssueID != ConfigLoadFailedId {
		t.Errorf("IssueID = %d", err.IssueID)
	}
	if !errors.Is(err, cause) {
		t.Error("BuildError() should keep the cause")
	}

	ctx.WithSuggestion("third")
	if len(err.Suggestions) != 2 {
		t.Errorf("later WithSuggestion changed a built error: %v", err.Suggestions)
	}
}

func TestErrorContext_BuildErrorWithoutOperation(t *testing.T) {
	if NewErrorContext().WithResource("x").BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}
}
