//go:build !linux && !darwin && !windows

package fsutil

import (
	"os"
	"time"
)

// BirthTime falls back to the modification time on platforms without a
// portable birth time.
func BirthTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
