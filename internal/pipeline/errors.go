// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"

	"github.com/oxi8/oxi8pack/internal/bundle"
	"github.com/oxi8/oxi8pack/internal/catalog"
	"github.com/oxi8/oxi8pack/internal/issue"
	"github.com/oxi8/oxi8pack/internal/linkenc"
	"github.com/oxi8/oxi8pack/internal/romsource"
)

const (
	// StagePrebuild runs the configured prebuild script.
	StagePrebuild Stage = "prebuild"
	// StageDiscover scans the classification roots.
	StageDiscover Stage = "discover"
	// StageRender encodes ROMs and renders the catalog.
	StageRender Stage = "render"
	// StageAssemble builds the manifest and writes the output directory.
	StageAssemble Stage = "assemble"
	// StageArchive zips the output directory.
	StageArchive Stage = "archive"
)

// ErrPrebuild is returned when the prebuild script fails.
var ErrPrebuild = errors.New("prebuild script failed")

type (
	// Stage names a step of the run.
	Stage string

	// StageError is the single failure report of a run.
	StageError struct {
		Stage Stage
		// Path is the file or directory involved, when there is one.
		Path string
		Err  error
	}

	// PrebuildError reports a non-zero exit of the prebuild script.
	PrebuildError struct {
		ExitCode int
	}
)

// String returns the stage name.
func (s Stage) String() string { return string(s) }

// Error implements the error interface for StageError.
func (e *StageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s stage failed at %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// IssueID returns the issue catalog entry describing the failure.
func (e *StageError) IssueID() issue.Id {
	switch {
	case errors.Is(e.Err, bundle.ErrCollision):
		return issue.NameCollisionId
	case errors.Is(e.Err, linkenc.ErrEncoding):
		return issue.EncodingFailedId
	case errors.Is(e.Err, romsource.ErrRead):
		return issue.RomReadFailedId
	}
	switch e.Stage {
	case StagePrebuild:
		return issue.PrebuildFailedId
	case StageDiscover:
		return issue.DiscoveryFailedId
	case StageRender:
		return issue.EncodingFailedId
	default:
		return issue.AssemblyFailedId
	}
}

// Error implements the error interface for PrebuildError.
func (e *PrebuildError) Error() string {
	return fmt.Sprintf("prebuild script exited with status %d", e.ExitCode)
}

// Unwrap returns ErrPrebuild for errors.Is() compatibility.
func (e *PrebuildError) Unwrap() error { return ErrPrebuild }

// stageError wraps err for stage, pulling the offending path out of the
// typed errors the stages return.
func stageError(stage Stage, err error) *StageError {
	se := &StageError{Stage: stage, Err: err}

	var (
		discoveryErr *romsource.DiscoveryError
		readErr      *romsource.ReadError
		entryErr     *catalog.EntryError
		assemblyErr  *bundle.AssemblyError
		collisionErr *bundle.CollisionError
	)
	switch {
	case errors.As(err, &discoveryErr):
		se.Path = discoveryErr.Root
	case errors.As(err, &readErr):
		se.Path = readErr.Path
	case errors.As(err, &entryErr):
		se.Path = entryErr.Path
	case errors.As(err, &collisionErr):
		se.Path = collisionErr.Name
	case errors.As(err, &assemblyErr):
		se.Path = assemblyErr.Path
	}
	return se
}
