// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// RunScript runs a POSIX shell script through the embedded interpreter, so the
// prebuild hook behaves the same on every host. External commands resolve
// through PATH. dir "" means the current directory.
func RunScript(ctx context.Context, script, dir string, stdout, stderr io.Writer) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "prebuild")
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	workDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(workDir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &PrebuildError{ExitCode: int(exitStatus)}
		}
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}
