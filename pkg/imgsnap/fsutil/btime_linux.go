//go:build linux

package fsutil

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// BirthTime returns the creation time of path. Linux only exposes it through
// statx, and only on filesystems that record it; otherwise the modification
// time from info is returned.
func BirthTime(path string, info os.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return info.ModTime()
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
