package probecache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Cache provides probe lookups during a scan and batches new results until
// Flush.
type Cache struct {
	store *Store

	mu      sync.Mutex
	pending map[string]map[string]*Entry

	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens or creates a cache at the given directory.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	store, err := OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open probe cache: %w", err)
	}

	return &Cache{
		store:   store,
		pending: make(map[string]map[string]*Entry),
	}, nil
}

// Close flushes pending entries and closes the cache.
func (c *Cache) Close() error {
	flushErr := c.Flush()
	return errors.Join(flushErr, c.store.Close())
}

// Lookup returns the cached entry for a file if it is still fresh for info.
// Safe for concurrent use.
func (c *Cache) Lookup(root, relPath string, info os.FileInfo) (*Entry, bool) {
	entry, err := c.store.Get(root, relPath)
	if err != nil || !entry.Fresh(info) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry, true
}

// Remember stages an entry for the next Flush. Safe for concurrent use.
func (c *Cache) Remember(root, relPath string, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byRoot, ok := c.pending[root]
	if !ok {
		byRoot = make(map[string]*Entry)
		c.pending[root] = byRoot
	}
	byRoot[relPath] = entry
}

// Dimensions returns the pixel size cached for a file, if its entry is
// still fresh for info and has one.
func (c *Cache) Dimensions(root, relPath string, info os.FileInfo) (width, height int, ok bool) {
	entry, err := c.store.Get(root, relPath)
	if err != nil || !entry.Fresh(info) || entry.Width <= 0 || entry.Height <= 0 {
		return 0, 0, false
	}
	return entry.Width, entry.Height, true
}

// RememberDimensions records a pixel size on the file's probe entry. Files
// that were never probed stay uncached and a stale entry is dropped.
func (c *Cache) RememberDimensions(root, relPath string, info os.FileInfo, width, height int) error {
	c.mu.Lock()
	if staged, ok := c.pending[root][relPath]; ok && staged.Fresh(info) {
		staged.Width, staged.Height = width, height
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	entry, err := c.store.Get(root, relPath)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !entry.Fresh(info) {
		return c.store.Delete(root, relPath)
	}

	entry.Width, entry.Height = width, height
	return c.store.Put(root, relPath, entry)
}

// Flush writes staged entries.
func (c *Cache) Flush() error {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]map[string]*Entry)
	c.mu.Unlock()

	for root, entries := range pending {
		if err := c.store.PutBatch(root, entries); err != nil {
			return fmt.Errorf("failed to write probe cache for %s: %w", root, err)
		}
	}
	return nil
}

// Prune removes entries under root whose relative path is not in live.
// It returns the number removed.
func (c *Cache) Prune(root string, live map[string]struct{}) (int, error) {
	keys, err := c.store.Keys(root)
	if err != nil {
		return 0, err
	}

	var stale []string
	for _, k := range keys {
		if _, ok := live[k]; !ok {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	return len(stale), c.store.DeleteBatch(root, stale)
}

// Stats returns lookup hits and misses since Open.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of stored entries.
func (c *Cache) Len() (int, error) {
	return c.store.Count()
}

// Clear removes all cached entries for a root.
func (c *Cache) Clear(root string) error {
	return c.store.DeletePrefix(root)
}

// ClearAll removes every cached entry.
func (c *Cache) ClearAll() error {
	return c.store.DropAll()
}
