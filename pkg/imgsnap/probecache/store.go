package probecache

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps Badger for raw entry access.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a store at the given directory.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the entry for root and relPath.
func (s *Store) Get(root, relPath string) (*Entry, error) {
	key := MakeKey(root, relPath)
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores an entry.
func (s *Store) Put(root, relPath string, entry *Entry) error {
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MakeKey(root, relPath), value)
	})
}

// Delete removes an entry. Deleting a missing key is not an error.
func (s *Store) Delete(root, relPath string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(MakeKey(root, relPath))
	})
}

// PutBatch stores many entries under one root in a single write batch.
func (s *Store) PutBatch(root string, entries map[string]*Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for relPath, entry := range entries {
		value, err := entry.Encode()
		if err != nil {
			return err
		}
		if err := wb.Set(MakeKey(root, relPath), value); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// DeleteBatch removes many entries under one root.
func (s *Store) DeleteBatch(root string, relPaths []string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, relPath := range relPaths {
		if err := wb.Delete(MakeKey(root, relPath)); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// Keys returns the relative paths stored under root.
func (s *Store) Keys(root string) ([]string, error) {
	prefix := MakeKeyPrefix(root)
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			_, rel := ParseKey(it.Item().Key())
			keys = append(keys, rel)
		}
		return nil
	})
	return keys, err
}

// Count returns the number of entries across all roots.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// DropAll removes every entry.
func (s *Store) DropAll() error {
	return s.db.DropAll()
}

// DeletePrefix removes all entries under root.
func (s *Store) DeletePrefix(root string) error {
	return s.db.DropPrefix(MakeKeyPrefix(root))
}
