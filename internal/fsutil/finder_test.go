package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Run("finds matching files recursively", func(t *testing.T) {
		dir := t.TempDir()
		sub := filepath.Join(dir, "nested")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(sub, "b.hcl"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), nil, 0o644))

		files, err := FindFilesByExtension(dir, ".hcl")
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("empty extension is rejected", func(t *testing.T) {
		_, err := FindFilesByExtension(t.TempDir(), "")
		assert.ErrorContains(t, err, "extension must not be empty")
	})

	t.Run("missing root fails", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".hcl")
		assert.Error(t, err)
	})
}
