package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/probecache"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the content-probe cache",
	Long: `Commands for managing the content-probe cache.

The cache remembers which files sniffed as images, keyed by size and
modification time, so repeat scans only read headers of changed files.
Cache data is stored in the XDG cache directory (typically ~/.cache/imgsnap/probe).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [dir]",
	Short: "Clear cached data",
	Long:  `Removes cached probe results, for one directory or, without an argument, for all.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := appConfig.Cache.Path

		if _, err := os.Stat(cachePath); os.IsNotExist(err) {
			fmt.Println("Cache is already empty.")
			return nil
		}

		cache, err := probecache.Open(cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()

		if len(args) == 1 {
			root, err := fsutil.AbsPath(args[0])
			if err != nil {
				return err
			}
			if err := cache.Clear(root); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Printf("Cache cleared for %s.\n", root)
			return nil
		}

		if err := cache.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, its size on disk and the number of cached files.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := appConfig.Cache.Path

		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			fmt.Println("Cache: empty (no cache directory)")
			fmt.Printf("Cache location: %s\n", cachePath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat cache: %w", err)
		}

		var size int64
		err = filepath.Walk(cachePath, func(_ string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				size += info.Size()
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		cache, err := probecache.Open(cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()

		entries, err := cache.Len()
		if err != nil {
			return fmt.Errorf("failed to count cache entries: %w", err)
		}

		fmt.Printf("Cache location: %s\n", cachePath)
		fmt.Printf("Cache size: %s\n", types.FormatSize(size))
		fmt.Printf("Cached files: %d\n", entries)
		fmt.Printf("Last modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appConfig.Cache.Path)
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}
