package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/filter"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/imageinfo"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/output"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/probecache"
)

var searchOpts listFlags

var searchCmd = &cobra.Command{
	Use:   "search <dir> <criteria>...",
	Short: "Find images by name, year or dimensions",
	Long: `Scan a directory and list the images matching every criterion.

Criteria:
  name=<text>          substring of the file name, or a glob such as *.png
  date=<yyyy>          capture year from EXIF, else the modification year
  dimensions=<W>x<H>   exact pixel size

Examples:
  imgsnap search ~/Pictures name=holiday
  imgsnap search ~/Pictures date=2021 dimensions=1920x1080`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	addListFlags(searchCmd, &searchOpts)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	criteria, err := filter.ParseCriteria(args[1:])
	if err != nil {
		return err
	}
	if criteria.Empty() {
		return errors.New("at least one search criterion is required")
	}

	f, err := buildFilter(searchOpts, filter.WithCriteria(criteria))
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	result, err := scanDirectory(ctx, args[0])
	if err != nil {
		return err
	}

	cache := openProbeCache()
	if cache != nil {
		defer cache.Close()
	}

	files := filterRecords(f, result.Files, imageEnricher(f, result.Root, cache))
	printVerbose("%d of %d images match", len(files), len(result.Files))

	return render(&output.Report{
		Kind:     output.KindFiles,
		Source:   result.Root,
		Files:    files,
		Duration: result.Elapsed,
		Warnings: scanWarnings(result),
	})
}

// imageEnricher reads only the image attributes f matches on. It returns
// nil when the scan record is enough. Dimensions go through cache when it
// is non-nil.
func imageEnricher(f *filter.Filter, root string, cache *probecache.Cache) func(*filter.FileInfo) {
	needsYear, needsDims := f.NeedsYear(), f.NeedsDimensions()
	if !needsYear && !needsDims {
		return nil
	}

	return func(fi *filter.FileInfo) {
		if needsYear {
			if taken, _, err := imageinfo.Exif(fi.Path); err == nil && !taken.IsZero() {
				fi.Year = taken.Year()
			}
		}
		if needsDims {
			fi.Width, fi.Height = cachedDimensions(fi.Path, root, cache)
		}
	}
}

// cachedDimensions returns the pixel size of path, decoding the header only
// when cache has no fresh answer. Unreadable files report 0x0.
func cachedDimensions(path, root string, cache *probecache.Cache) (int, int) {
	if cache == nil {
		w, h, _, err := imageinfo.Dimensions(path)
		if err != nil {
			return 0, 0
		}
		return w, h
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, 0
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	if w, h, ok := cache.Dimensions(root, rel, info); ok {
		return w, h
	}

	w, h, _, err := imageinfo.Dimensions(path)
	if err != nil {
		return 0, 0
	}
	if err := cache.RememberDimensions(root, rel, info, w, h); err != nil {
		printVerbose("Failed to cache dimensions of %s: %v", path, err)
	}
	return w, h
}
