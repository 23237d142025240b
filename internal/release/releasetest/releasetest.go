// Package releasetest provides a complete release fixture for tests of
// packages that drive a release: sources, mapping document, value sets,
// center directory and the release file tying them together.
package releasetest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// Dir returns the directory holding the pristine fixture files.
func Dir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "testdata")
}

// Fixture copies the fixture into a temporary directory and returns the
// path of its release file. Output lands under that directory.
func Fixture(t testing.TB) string {
	t.Helper()
	src := Dir()
	dir := t.TempDir()
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644))
	}
	return filepath.Join(dir, "release.yaml")
}
