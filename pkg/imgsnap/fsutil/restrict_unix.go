//go:build unix

package fsutil

import "os"

// RestrictToOwner limits path to its owner: rwx for directories, rw for files.
func RestrictToOwner(path string, dir bool) error {
	mode := os.FileMode(0o600)
	if dir {
		mode = 0o700
	}
	return os.Chmod(path, mode)
}
