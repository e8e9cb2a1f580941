//go:build windows

package fsutil

import (
	"os"
	"syscall"
	"time"
)

// BirthTime returns the NTFS creation time.
func BirthTime(_ string, info os.FileInfo) time.Time {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(0, data.CreationTime.Nanoseconds())
}
