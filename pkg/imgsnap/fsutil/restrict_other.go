//go:build !unix && !windows

package fsutil

// RestrictToOwner is a no-op where neither permission bits nor ACLs exist.
func RestrictToOwner(string, bool) error {
	return nil
}
