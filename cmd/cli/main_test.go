package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/testutil"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_ExecutesGrid(t *testing.T) {
	t.Parallel()

	path := writeGrid(t, `
task "sum" "totals" {
  values = [1, 2, 3]
}

task "emit" "report" {
  depends_on = ["totals"]
  message    = "run complete"
}
`)
	out := &testutil.SafeBuffer{}

	var err error
	testutil.RequireTerminates(t, 30*time.Second, func() {
		err = run(out, []string{"--log-level", "error", "--log-format", "text", path})
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "run complete")
}

func TestRun_FailingGrid(t *testing.T) {
	t.Parallel()

	path := writeGrid(t, `task "fail" "broken" {}`)
	out := &testutil.SafeBuffer{}

	err := run(out, []string{"--log-level", "error", path})
	require.Error(t, err)
	assert.ErrorContains(t, err, "execution failed for")
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// A syntax error that fails inside app.NewApp, which panics on load.
	path := writeGrid(t, `
task "emit" "broken" {
  message =
`)
	out := &bytes.Buffer{}

	err := run(out, []string{path})
	require.Error(t, err)
	assert.ErrorContains(t, err, "a critical startup error occurred")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
