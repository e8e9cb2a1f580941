//go:build darwin

package fsutil

import (
	"os"
	"syscall"
	"time"
)

// BirthTime returns the creation time recorded in the stat structure.
func BirthTime(_ string, info os.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
}
