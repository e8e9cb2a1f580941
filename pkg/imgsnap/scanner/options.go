// Package scanner enumerates the supported image files under a directory.
// It walks in parallel with fastwalk, counts every regular file it sees, and
// keeps only files whose extension is supported and, when probing is on,
// whose header sniffs as an image.
package scanner

import (
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/config"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/filter"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/probecache"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// Options configures the scanner behavior.
type Options struct {
	// Root is the directory to enumerate.
	Root string

	// Exclude contains glob patterns matched against full paths and base
	// names. Matching directories are not descended into.
	Exclude []string

	// Extensions is the supported set, with or without leading dots.
	Extensions []string

	// ProbeContent rejects files whose first bytes do not sniff as an image.
	ProbeContent bool

	// Cache remembers probe results between scans. Nil disables caching.
	Cache *probecache.Cache

	// OnProgress is called periodically from walker goroutines.
	OnProgress func(types.ScanProgress)
}

// DefaultOptions returns options with the configured defaults.
func DefaultOptions() Options {
	return Options{
		Root:         ".",
		Extensions:   config.DefaultExtensions,
		ProbeContent: true,
	}
}

// Validate fills defaults and checks the exclusion patterns.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = "."
	}
	if len(o.Extensions) == 0 {
		o.Extensions = config.DefaultExtensions
	}
	_, err := filter.NewMatcher(o.Exclude...)
	return err
}
