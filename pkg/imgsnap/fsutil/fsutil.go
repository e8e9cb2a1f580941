// Package fsutil holds the filesystem primitives the snapshot store relies on:
// atomic file commits, path normalization, birth-time lookup and
// best-effort owner-only permission hardening.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/text/unicode/norm"
)

// AtomicWrite writes data to a temporary file in the target directory,
// fsyncs it, then renames it over path. Readers never observe a partial file.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".imgsnap-tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write create tmp: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("atomic write: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("atomic write chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("atomic write fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomic write close: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic write rename: %w", err)
	}
	committed = true

	// Directory handles cannot be fsynced on windows.
	if runtime.GOOS != "windows" {
		if err := FsyncDir(dir); err != nil {
			return fmt.Errorf("atomic write fsync dir: %w", err)
		}
	}
	return nil
}

// FsyncDir fsyncs a directory so a preceding rename is durable.
func FsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("fsync dir open: %w", err)
	}
	defer d.Close()
	return d.Sync()
}

// AbsPath returns the absolute, cleaned form of p, spelled as it is on
// disk. Relative paths resolve against the process working directory.
func AbsPath(p string) (string, error) {
	return filepath.Abs(p)
}

// NormalizePath returns AbsPath(p) in Unicode NFC. It is the form paths are
// compared in and may not name an existing file on filesystems that keep
// decomposed names.
func NormalizePath(p string) (string, error) {
	abs, err := AbsPath(p)
	if err != nil {
		return "", err
	}
	return norm.NFC.String(abs), nil
}

// PathKey returns a short stable identifier for an absolute path: the first
// 12 hex characters of its SHA-256.
func PathKey(abs string) string {
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:12]
}
