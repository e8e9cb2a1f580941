// Package stats folds a scan result into directory statistics.
package stats

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// UnknownExtension is reported when no file has an extension.
const UnknownExtension = "unknown"

// ExtensionCount is one histogram bucket.
type ExtensionCount struct {
	Ext   string `json:"ext" yaml:"ext"`
	Count int64  `json:"count" yaml:"count"`
}

// Stats summarizes a directory. Counts and sizes cover every regular file;
// the extremes cover supported images only.
type Stats struct {
	Root string `json:"root" yaml:"root"`

	TotalFiles int64 `json:"total_files" yaml:"total_files"`
	ImageFiles int64 `json:"image_files" yaml:"image_files"`
	EmptyFiles int64 `json:"empty_files" yaml:"empty_files"`

	// Subdirectories counts every directory below the root.
	Subdirectories int64 `json:"subdirectories" yaml:"subdirectories"`

	TotalSize        int64 `json:"total_size" yaml:"total_size"`
	ImageSize        int64 `json:"image_size" yaml:"image_size"`
	AverageSize      int64 `json:"average_size" yaml:"average_size"`
	AverageImageSize int64 `json:"average_image_size" yaml:"average_image_size"`

	Largest  *types.FileRecord `json:"largest,omitempty" yaml:"largest,omitempty"`
	Smallest *types.FileRecord `json:"smallest,omitempty" yaml:"smallest,omitempty"`
	Newest   *types.FileRecord `json:"newest,omitempty" yaml:"newest,omitempty"`
	Oldest   *types.FileRecord `json:"oldest,omitempty" yaml:"oldest,omitempty"`

	// MostCommonExt is the most frequent extension without its dot. Ties go
	// to the alphabetically first.
	MostCommonExt string `json:"most_common_ext" yaml:"most_common_ext"`

	// Extensions lists distinct extensions without dots, sorted.
	Extensions []string `json:"extensions" yaml:"extensions"`

	// Histogram is sorted by count descending, then extension.
	Histogram []ExtensionCount `json:"histogram" yaml:"histogram"`
}

// Compute folds result into Stats.
func Compute(result *types.ScanResult) *Stats {
	s := &Stats{
		Root:           result.Root,
		TotalFiles:     result.FilesScanned,
		ImageFiles:     int64(len(result.Files)),
		EmptyFiles:     result.EmptyFiles,
		Subdirectories: max(result.DirsScanned-1, 0),
		TotalSize:      result.TotalSize,
		MostCommonExt:  UnknownExtension,
		Extensions:     []string{},
		Histogram:      []ExtensionCount{},
	}

	for i := range result.Files {
		f := &result.Files[i]
		s.ImageSize += f.Size

		if s.Largest == nil || f.Size > s.Largest.Size {
			s.Largest = f
		}
		if f.Size > 0 && (s.Smallest == nil || f.Size < s.Smallest.Size) {
			s.Smallest = f
		}
		if s.Newest == nil || f.ModTime.After(s.Newest.ModTime) {
			s.Newest = f
		}
		if s.Oldest == nil || f.ModTime.Before(s.Oldest.ModTime) {
			s.Oldest = f
		}
	}

	if s.TotalFiles > 0 {
		s.AverageSize = s.TotalSize / s.TotalFiles
	}
	if s.ImageFiles > 0 {
		s.AverageImageSize = s.ImageSize / s.ImageFiles
	}

	for _, ext := range slices.Sorted(maps.Keys(result.Extensions)) {
		name := strings.TrimPrefix(ext, ".")
		if name == "" {
			continue
		}
		s.Extensions = append(s.Extensions, name)
		s.Histogram = append(s.Histogram, ExtensionCount{Ext: name, Count: result.Extensions[ext]})
	}
	slices.SortStableFunc(s.Histogram, func(a, b ExtensionCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(s.Histogram) > 0 {
		s.MostCommonExt = s.Histogram[0].Ext
	}

	return s
}

// Analyzer memoizes Stats for one scan result.
type Analyzer struct {
	mu     sync.Mutex
	result *types.ScanResult
	stats  *Stats
}

// NewAnalyzer creates an analyzer over result.
func NewAnalyzer(result *types.ScanResult) *Analyzer {
	return &Analyzer{result: result}
}

// Stats computes statistics on first use and returns the memoized value
// afterwards.
func (a *Analyzer) Stats() *Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stats == nil {
		a.stats = Compute(a.result)
	}
	return a.stats
}

// Reset drops the memoized value and, when result is non-nil, replaces the
// underlying scan.
func (a *Analyzer) Reset(result *types.ScanResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if result != nil {
		a.result = result
	}
	a.stats = nil
}
