package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/filter"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// listFlags holds the filtering and sorting flags shared by list and search.
type listFlags struct {
	sortBy    string
	reverse   bool
	limit     int
	minSize   string
	maxSize   string
	olderThan string
	newerThan string
	fileTypes string
	ext       string
	name      string
}

func addListFlags(cmd *cobra.Command, f *listFlags) {
	cmd.Flags().StringVar(&f.sortBy, "sort", "path", "sort by: path, size, age, name")
	cmd.Flags().BoolVarP(&f.reverse, "reverse", "r", false, "reverse the natural sort order")
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "maximum number of results (0 = unlimited)")
	cmd.Flags().StringVar(&f.minSize, "min-size", "", "minimum file size (e.g., 100KB, 2MiB)")
	cmd.Flags().StringVar(&f.maxSize, "max-size", "", "maximum file size")
	cmd.Flags().StringVar(&f.olderThan, "older-than", "", "only files modified before this age (e.g., 30d, 1y)")
	cmd.Flags().StringVar(&f.newerThan, "newer-than", "", "only files modified within this age")
	cmd.Flags().StringVarP(&f.fileTypes, "type", "t", "", "type groups: photo, graphic, image")
	cmd.Flags().StringVar(&f.ext, "ext", "", "extensions, comma separated (overrides --type)")
	cmd.Flags().StringVar(&f.name, "name", "", "file name substring or glob (e.g., IMG_*)")
}

// buildFilter creates a filter.Filter from the list flags. extra options
// are applied last.
func buildFilter(f listFlags, extra ...filter.Option) (*filter.Filter, error) {
	opts := []filter.Option{filter.WithLimit(f.limit)}
	if f.name != "" {
		opts = append(opts, filter.WithName(f.name))
	}

	var minSize, maxSize int64
	if f.minSize != "" {
		n, err := types.ParseSize(f.minSize)
		if err != nil {
			return nil, fmt.Errorf("invalid min-size %q: %w", f.minSize, err)
		}
		minSize = n
	}
	if f.maxSize != "" {
		n, err := types.ParseSize(f.maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid max-size %q: %w", f.maxSize, err)
		}
		maxSize = n
	}
	if minSize > 0 && maxSize > 0 && minSize > maxSize {
		return nil, fmt.Errorf("min-size %s exceeds max-size %s", f.minSize, f.maxSize)
	}
	opts = append(opts, filter.WithSizeRange(minSize, maxSize))

	if f.olderThan != "" {
		d, err := filter.ParseDuration(f.olderThan)
		if err != nil {
			return nil, fmt.Errorf("invalid older-than %q: %w", f.olderThan, err)
		}
		opts = append(opts, filter.WithOlderThan(d))
	}
	if f.newerThan != "" {
		d, err := filter.ParseDuration(f.newerThan)
		if err != nil {
			return nil, fmt.Errorf("invalid newer-than %q: %w", f.newerThan, err)
		}
		opts = append(opts, filter.WithNewerThan(d))
	}

	// Extensions (overrides type groups if both specified)
	if f.ext != "" {
		opts = append(opts, filter.WithExtensions(parseCommaSeparated(f.ext)...))
	} else if f.fileTypes != "" {
		opts = append(opts, filter.WithTypeGroups(parseCommaSeparated(f.fileTypes)...))
	}

	sortField, err := filter.ParseSortField(f.sortBy)
	if err != nil {
		return nil, err
	}
	opts = append(opts, filter.WithSortBy(sortField))

	// Size and age read best largest/newest first; path and name A-Z.
	descending := f.reverse
	if sortField == filter.SortSize || sortField == filter.SortAge {
		descending = !f.reverse
	}
	opts = append(opts, filter.WithSortDescending(descending))

	return filter.New(append(opts, extra...)...)
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
