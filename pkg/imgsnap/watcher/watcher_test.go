package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func startWatcher(t *testing.T, root string, opts Options) <-chan []string {
	t.Helper()

	opts.Debounce = testDebounce
	w, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(paths []string) { batches <- paths })
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return batches
}

// waitFor collects batches until one contains want or the deadline passes.
func waitFor(t *testing.T, batches <-chan []string, want string) []string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case b := <-batches:
			if slices.Contains(b, want) {
				return b
			}
		case <-deadline:
			t.Fatalf("no batch containing %s", want)
			return nil
		}
	}
}

func TestNew_InvalidExclude(t *testing.T) {
	_, err := New(Options{Exclude: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestWatch_AddsSubdirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "thumbs"), 0o755))

	w, err := New(Options{Exclude: []string{"thumbs"}})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(root))
	assert.Equal(t, 3, w.Watched(), "root, a and a/b; thumbs is excluded")

	require.NoError(t, w.Close())
	assert.Zero(t, w.Watched())
}

func TestWatch_FileIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	w, err := New(Options{})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(path))
	assert.Zero(t, w.Watched())
}

func TestRun_DeliversDebouncedBatch(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, Options{})

	a := filepath.Join(root, "a.jpg")
	b := filepath.Join(root, "b.png")
	require.NoError(t, os.WriteFile(a, []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("2"), 0o644))

	batch := waitFor(t, batches, a)
	assert.True(t, slices.IsSorted(batch))
	assert.Equal(t, len(batch), len(slices.Compact(slices.Clone(batch))), "batch has no duplicates")
	if !slices.Contains(batch, b) {
		waitFor(t, batches, b)
	}
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, Options{})

	sub := filepath.Join(root, "new")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitFor(t, batches, sub)

	nested := filepath.Join(sub, "pic.jpg")
	require.NoError(t, os.WriteFile(nested, []byte("x"), 0o644))
	waitFor(t, batches, nested)
}

func TestRun_ExcludedPathsProduceNoEvents(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, Options{Exclude: []string{"*.tmp"}})

	require.NoError(t, os.WriteFile(filepath.Join(root, "scratch.tmp"), []byte("x"), 0o644))
	kept := filepath.Join(root, "kept.jpg")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))

	batch := waitFor(t, batches, kept)
	assert.NotContains(t, batch, filepath.Join(root, "scratch.tmp"))
}

func TestIsSubPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		path, parent string
		want         bool
	}{
		{sep + "a" + sep + "b", sep + "a", true},
		{sep + "a", sep + "a", false},
		{sep + "ab", sep + "a", false},
		{sep + "a", sep + "a" + sep + "b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSubPath(tt.path, tt.parent), "%s under %s", tt.path, tt.parent)
	}
}
