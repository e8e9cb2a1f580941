package probecache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) os.FileInfo {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

func TestKeyRoundTrip(t *testing.T) {
	key := MakeKey("/photos", "2021/a.jpg")
	root, rel := ParseKey(key)
	assert.Equal(t, "/photos", root)
	assert.Equal(t, "2021/a.jpg", rel)

	root, rel = ParseKey([]byte("bare"))
	assert.Equal(t, "bare", root)
	assert.Empty(t, rel)
}

func TestEntryFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	info := writeFile(t, path, "pixels")

	entry := NewEntry(info, "image/png", true)
	assert.True(t, entry.Fresh(info))

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	touched, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, entry.Fresh(touched), "mtime change should invalidate")

	grown := writeFile(t, path, "more pixels")
	assert.False(t, entry.Fresh(grown), "size change should invalidate")

	old := *entry
	old.Version = Version + 1
	assert.False(t, old.Fresh(info), "other versions should be ignored")
}

func TestStoreGetPutDelete(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	entry := &Entry{Version: Version, Size: 10, Mtime: 42, MIME: "image/jpeg", Image: true, Width: 4, Height: 3}
	require.NoError(t, store.Put("/r", "a.jpg", entry))

	got, err := store.Get("/r", "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	require.NoError(t, store.Delete("/r", "a.jpg"))
	_, err = store.Get("/r", "a.jpg")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCacheLookupAndFlush(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "probe"))
	require.NoError(t, err)
	defer cache.Close()

	dir := t.TempDir()
	info := writeFile(t, filepath.Join(dir, "a.jpg"), "jpeg bytes")

	_, ok := cache.Lookup(dir, "a.jpg", info)
	assert.False(t, ok)

	cache.Remember(dir, "a.jpg", NewEntry(info, "image/jpeg", true))

	_, ok = cache.Lookup(dir, "a.jpg", info)
	assert.False(t, ok, "staged entries are not visible before Flush")

	require.NoError(t, cache.Flush())

	entry, ok := cache.Lookup(dir, "a.jpg", info)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", entry.MIME)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestCachePrune(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "probe"))
	require.NoError(t, err)
	defer cache.Close()

	for _, rel := range []string{"keep.jpg", "gone.jpg", "also-gone.png"} {
		cache.Remember("/root", rel, &Entry{Version: Version})
	}
	cache.Remember("/other", "gone.jpg", &Entry{Version: Version})
	require.NoError(t, cache.Flush())

	removed, err := cache.Prune("/root", map[string]struct{}{"keep.jpg": {}})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := cache.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "keep.jpg under /root and gone.jpg under /other remain")
}

func TestCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe")
	cache, err := Open(path)
	require.NoError(t, err)

	cache.Remember("/a", "x.jpg", &Entry{Version: Version})
	cache.Remember("/b", "y.jpg", &Entry{Version: Version})
	require.NoError(t, cache.Flush())

	require.NoError(t, cache.Clear("/a"))
	n, err := cache.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, cache.ClearAll())
	n, err = cache.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, cache.Close())
}

func TestCacheCloseFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe")
	cache, err := Open(path)
	require.NoError(t, err)

	cache.Remember("/a", "x.jpg", &Entry{Version: Version, MIME: "image/gif"})
	require.NoError(t, cache.Close())

	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get("/a", "x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/gif", got.MIME)
}

func TestCacheDimensions(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "probe"))
	require.NoError(t, err)
	defer cache.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	info := writeFile(t, path, "png bytes")

	require.NoError(t, cache.RememberDimensions(dir, "a.png", info, 4, 3))
	_, _, ok := cache.Dimensions(dir, "a.png", info)
	assert.False(t, ok, "unprobed files are not cached")

	cache.Remember(dir, "a.png", NewEntry(info, "image/png", true))
	require.NoError(t, cache.RememberDimensions(dir, "a.png", info, 4, 3))
	require.NoError(t, cache.Flush())

	w, h, ok := cache.Dimensions(dir, "a.png", info)
	require.True(t, ok)
	assert.Equal(t, [2]int{4, 3}, [2]int{w, h})

	require.NoError(t, cache.RememberDimensions(dir, "a.png", info, 8, 6))
	w, h, ok = cache.Dimensions(dir, "a.png", info)
	require.True(t, ok)
	assert.Equal(t, [2]int{8, 6}, [2]int{w, h})

	grown := writeFile(t, path, "a larger png")
	_, _, ok = cache.Dimensions(dir, "a.png", grown)
	assert.False(t, ok, "size change invalidates dimensions")

	require.NoError(t, cache.RememberDimensions(dir, "a.png", grown, 8, 6))
	n, err := cache.Len()
	require.NoError(t, err)
	assert.Zero(t, n, "stale entry is dropped")
}
