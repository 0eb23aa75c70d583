// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxi8/oxi8pack/internal/linkenc"
	"github.com/oxi8/oxi8pack/internal/testutil"
)

// writeZip creates an archive at path holding files.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	testutil.MustClose(t, zw)
	testutil.MustClose(t, f)
}

func TestVerifyCommand_AfterBuild(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	app, stdout, _ := newTestApp(t, Dependencies{})

	require.NoError(t, execute(t, app, "--config", p.configPath, "build"))
	stdout.Reset()

	require.NoError(t, execute(t, app, "--config", p.configPath, "verify"))
	assert.Contains(t, stdout.String(), "4 files, 3 ROM links")
}

func TestVerifyCommand_ExplicitArchive(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	archive := filepath.Join(t.TempDir(), "other.zip")
	doc := `<li><a href="./#` + linkenc.Encode([]byte{0x00, 0xe0}) + `">CLS</a></li>`
	writeZip(t, archive, map[string]string{"list.html": doc})

	app, stdout, _ := newTestApp(t, Dependencies{})
	require.NoError(t, execute(t, app, "--config", p.configPath, "verify", archive, "--catalog-name", "list.html"))
	assert.Contains(t, stdout.String(), "1 files, 1 ROM links, 2 B of ROM data")
}

func TestVerifyCommand_MissingCatalog(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	archive := filepath.Join(t.TempDir(), "web.zip")
	writeZip(t, archive, map[string]string{"index.html": "<html></html>"})

	app, _, stderr := newTestApp(t, Dependencies{})
	err := execute(t, app, "--config", p.configPath, "verify", archive)
	requireExitCode(t, err, ExitFailure)
	assert.Contains(t, stderr.String(), `catalog "games.html" not found`)
}

func TestVerifyCommand_MissingArchive(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	app, _, stderr := newTestApp(t, Dependencies{})

	err := execute(t, app, "--config", p.configPath, "verify")
	requireExitCode(t, err, ExitFailure)
	assert.Contains(t, stderr.String(), "Archive check failed")
}

func TestVerifyArchive_BadToken(t *testing.T) {
	t.Parallel()

	archive := filepath.Join(t.TempDir(), "web.zip")
	writeZip(t, archive, map[string]string{
		"games.html": `<li><a href="./#AAA">broken</a></li>`,
	})

	_, err := verifyArchive(archive, "games.html")
	var le *linkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "broken", le.name)
}
