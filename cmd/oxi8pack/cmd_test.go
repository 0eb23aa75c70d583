// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxi8/oxi8pack/internal/config"
	"github.com/oxi8/oxi8pack/internal/testutil"
)

// testProject is a temporary source tree with a config file describing it.
type testProject struct {
	dir        string
	configPath string
	cfg        *config.Config
}

func newTestProject(t *testing.T) *testProject {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"roms/chip8/PONG":         "\x6a\x02\x6b\x0c",
		"roms/chip8/readme.txt":   "not a rom",
		"roms/schip/ANT":          "\x00\xff\x00\xe0",
		"roms/octo/snake":         "\xa2\x1e",
		"roms/octo/xo-test":       "excluded",
		"web/index.html":          "<html></html>",
		"target/deploy/oxi8.js":   "js",
		"target/deploy/oxi8.wasm": "\x00asm",
	})

	cfg := config.DefaultConfig()
	cfg.BaseSetRoot = config.Path(filepath.Join(dir, "roms", "chip8"))
	cfg.ExtendedSetRoot = config.Path(filepath.Join(dir, "roms", "schip"))
	cfg.CommunityRoot = config.Path(filepath.Join(dir, "roms", "octo"))
	cfg.OutputDir = config.Path(filepath.Join(dir, "dist", "web"))
	cfg.ArchivePath = config.Path(filepath.Join(dir, "dist", "web.zip"))
	cfg.StaticAssets = []config.AssetEntry{{Path: config.Path(filepath.Join(dir, "web", "index.html"))}}
	cfg.CompiledArtifacts = []config.AssetEntry{
		{Path: config.Path(filepath.Join(dir, "target", "deploy", "oxi8.js"))},
		{Path: config.Path(filepath.Join(dir, "target", "deploy", "oxi8.wasm"))},
	}

	configPath := filepath.Join(dir, config.ProjectFileName)
	require.NoError(t, config.WriteFile(configPath, cfg, false))

	return &testProject{dir: dir, configPath: configPath, cfg: cfg}
}

// newTestApp returns an App writing to in-memory buffers.
func newTestApp(t *testing.T, deps Dependencies) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps.Stdout = stdout
	deps.Stderr = stderr
	app, err := NewApp(deps)
	require.NoError(t, err)
	return app, stdout, stderr
}

// execute runs the root command with args.
func execute(t *testing.T, app *App, args ...string) error {
	t.Helper()
	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// requireExitCode asserts err is an ExitError with the given code.
func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, code, exitErr.Code)
}
