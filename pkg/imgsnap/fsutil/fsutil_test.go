package fsutil_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, fsutil.AtomicWrite(path, []byte("a=1\n"), 0o600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a=1\n", string(content))
}

func TestAtomicWrite_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, fsutil.AtomicWrite(path, []byte("new"), 0o600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the target file should remain")
}

func TestAtomicWrite_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.txt")
	assert.Error(t, fsutil.AtomicWrite(path, []byte("x"), 0o600))
}

func TestNormalizePath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := fsutil.NormalizePath("a/../b/c.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "b", "c.jpg"), got)

	// Decomposed "é" (e + combining acute) becomes the composed rune.
	got, err = fsutil.NormalizePath(filepath.Join(wd, "cafe\u0301.jpg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "caf\u00e9.jpg"), got)
}

func TestAbsPath_KeepsDecomposedNames(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := fsutil.AbsPath("x/./cafe\u0301.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "x", "cafe\u0301.jpg"), got)
}

func TestPathKey(t *testing.T) {
	a := fsutil.PathKey("/photos/2024")
	b := fsutil.PathKey("/archive/2024")

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, fsutil.PathKey("/photos/2024"))
}

func TestBirthTime_NeverZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	info, err := os.Stat(path)
	require.NoError(t, err)

	assert.False(t, fsutil.BirthTime(path, info).IsZero())
}

func TestRestrictToOwner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	dir := t.TempDir()
	sub := filepath.Join(dir, "store")
	require.NoError(t, os.Mkdir(sub, 0o755))
	file := filepath.Join(sub, "snap.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	require.NoError(t, fsutil.RestrictToOwner(sub, true))
	require.NoError(t, fsutil.RestrictToOwner(file, false))

	info, err := os.Stat(sub)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	info, err = os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
