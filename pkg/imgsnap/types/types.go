// Package types provides the core data types shared by the imgsnap packages:
// enumerated file records, scan results and progress, and size helpers.
package types

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// FileRecord is one enumerated file. Only Path and Size take part in
// snapshots; the remaining attributes serve listings, stats and search.
type FileRecord struct {
	// Path is the absolute, normalized path to the file.
	Path string `json:"path" yaml:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`

	// CreateTime is the birth time when the platform exposes one,
	// otherwise the modification time.
	CreateTime time.Time `json:"create_time,omitempty" yaml:"create_time,omitempty"`

	Mode os.FileMode `json:"mode" yaml:"mode"`

	// Ext is the lowercased extension including the dot.
	Ext string `json:"ext" yaml:"ext"`

	// MIME is the sniffed content type, empty when probing was disabled.
	MIME string `json:"mime,omitempty" yaml:"mime,omitempty"`
}

// HumanSize returns the file size formatted with IEC units.
func (f *FileRecord) HumanSize() string {
	return FormatSize(f.Size)
}

// ScanResult is the outcome of enumerating a directory tree.
type ScanResult struct {
	// Root is the resolved absolute root that was walked.
	Root string `json:"root"`

	// Files holds the supported image files, sorted by path.
	Files []FileRecord `json:"files"`

	// DirsScanned counts directories visited, including the root.
	DirsScanned int64 `json:"dirs_scanned"`

	// FilesScanned counts every regular file seen, supported or not.
	FilesScanned int64 `json:"files_scanned"`

	// TotalSize is the byte total over every regular file seen.
	TotalSize int64 `json:"total_size"`

	// EmptyFiles counts zero-byte regular files.
	EmptyFiles int64 `json:"empty_files"`

	// Extensions is a histogram of lowercased extensions over every
	// regular file seen. Files without an extension are counted under "".
	Extensions map[string]int64 `json:"extensions"`

	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	Elapsed time.Duration `json:"elapsed"`

	// Errors holds per-path failures that did not stop the walk.
	Errors []ScanError `json:"errors,omitempty"`
}

// TotalImageSize returns the byte total of the supported files.
func (r *ScanResult) TotalImageSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// ScanError pairs a path with the error encountered there.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanProgress reports live scan progress.
type ScanProgress struct {
	DirsScanned  int64  `json:"dirs_scanned"`
	FilesScanned int64  `json:"files_scanned"`
	ImagesFound  int64  `json:"images_found"`
	CurrentPath  string `json:"current_path"`
	BytesScanned int64  `json:"bytes_scanned"`
}

// ErrInvalidSize indicates that a size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ParseSize parses a human-readable size such as "10MB", "512KiB" or "1024".
// SI suffixes (KB, MB) are decimal and IEC suffixes (KiB, MiB) are binary.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidSize, s)
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return int64(n), nil
}

// FormatSize converts a size in bytes to a human-readable IEC string,
// e.g. FormatSize(1536) returns "1.5 KiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
