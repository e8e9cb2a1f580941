// Package probecache remembers content-probe results so unchanged files are
// not re-read on every scan. Entries live in a badger database keyed by scan
// root and relative path, and are trusted only while size and mtime match.
package probecache

import (
	"bytes"
	"encoding/gob"
	"os"
)

// Version is incremented when the entry encoding changes. Entries written
// by another version are treated as misses.
const Version = 1

// KeySeparator separates root from relative path in keys.
const KeySeparator = '\x00'

// Entry is the cached probe result for one file.
type Entry struct {
	Version int
	Size    int64 // bytes at probe time
	Mtime   int64 // UnixNano at probe time
	MIME    string
	Image   bool

	// Width and Height are zero until RememberDimensions records them.
	Width  int
	Height int
}

// NewEntry records a probe result for a file described by info.
func NewEntry(info os.FileInfo, mime string, image bool) *Entry {
	return &Entry{
		Version: Version,
		Size:    info.Size(),
		Mtime:   info.ModTime().UnixNano(),
		MIME:    mime,
		Image:   image,
	}
}

// Fresh reports whether the entry still describes info.
func (e *Entry) Fresh(info os.FileInfo) bool {
	return e.Version == Version &&
		e.Size == info.Size() &&
		e.Mtime == info.ModTime().UnixNano()
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes data into the entry.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates a key of the form <root>\x00<relative path>.
func MakeKey(root, relPath string) []byte {
	return []byte(root + string(KeySeparator) + relPath)
}

// ParseKey splits a key back into root and relative path.
func ParseKey(key []byte) (root, relPath string) {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key), ""
	}
	return string(key[:idx]), string(key[idx+1:])
}

// MakeKeyPrefix returns the prefix shared by every key under root.
func MakeKeyPrefix(root string) []byte {
	return []byte(root + string(KeySeparator))
}
