// Package filter selects, sorts, and limits image file lists. It backs the
// search command's name/year/dimensions criteria, the scanner's extension
// set, and its exclusion globs.
package filter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// SortField specifies the field to sort files by.
type SortField int

const (
	// SortPath sorts files by path alphabetically.
	SortPath SortField = iota
	// SortSize sorts files by size in bytes.
	SortSize
	// SortAge sorts files by modification time, oldest first when ascending.
	SortAge
	// SortName sorts files by base name.
	SortName
)

const (
	sortFieldPath = "path"
	sortFieldSize = "size"
	sortFieldAge  = "age"
	sortFieldName = "name"
)

// String returns the string representation of the sort field.
func (s SortField) String() string {
	switch s {
	case SortSize:
		return sortFieldSize
	case SortAge:
		return sortFieldAge
	case SortName:
		return sortFieldName
	default:
		return sortFieldPath
	}
}

// ErrInvalidSortField indicates that the sort field string could not be parsed.
var ErrInvalidSortField = errors.New("invalid sort field")

// ParseSortField parses "path", "size", "age" or "name" (case-insensitive).
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(s) {
	case sortFieldPath:
		return SortPath, nil
	case sortFieldSize:
		return SortSize, nil
	case sortFieldAge:
		return SortAge, nil
	case sortFieldName:
		return SortName, nil
	default:
		return SortPath, fmt.Errorf("%w: %q", ErrInvalidSortField, s)
	}
}

// TypeGroups maps group names to the image extensions they cover.
var TypeGroups = map[string][]string{
	"photo":   {".jpg", ".jpeg", ".webp"},
	"graphic": {".png", ".gif", ".bmp"},
	"image":   {".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"},
}

// NormalizeExtensions lowercases extensions and adds the leading dot.
// Empty entries are dropped.
func NormalizeExtensions(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized
}

// FileInfo is the view of an image file that filters operate on.
// Year, Width and Height are zero until the caller enriches them.
type FileInfo struct {
	Path    string
	Name    string
	Ext     string
	Size    int64
	ModTime time.Time

	// Year is the capture year, from EXIF when available.
	Year int

	Width  int
	Height int
}

// FromRecord builds a FileInfo from a scanned record. Year defaults to the
// modification year.
func FromRecord(r types.FileRecord) FileInfo {
	ext := r.Ext
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(r.Path))
	}
	fi := FileInfo{
		Path:    r.Path,
		Name:    filepath.Base(r.Path),
		Ext:     ext,
		Size:    r.Size,
		ModTime: r.ModTime,
	}
	if !r.ModTime.IsZero() {
		fi.Year = r.ModTime.Year()
	}
	return fi
}
