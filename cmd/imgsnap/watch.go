package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/snapshot"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/watcher"
)

var watchUpdate bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-compare a directory whenever it changes",
	Long: `Watch a directory tree and compare it with its snapshot after every
burst of filesystem activity. The comparison runs once at start-up.

With --update each detected change is accepted as the new baseline, and a
directory without a snapshot gets one on the first run.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchUpdate, "update", "u", false, "save a new snapshot after each change")
	watchCmd.Flags().Duration("debounce", 0, "quiet period before re-comparing (default from config)")
	_ = viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	root, err := fsutil.AbsPath(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	exclude := append(scanOptions(root).Exclude, storeExcludes(store)...)
	w, err := watcher.New(watcher.Options{
		Debounce: viper.GetDuration("watch.debounce"),
		Exclude:  exclude,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(root); err != nil {
		return err
	}

	if err := watchCycle(ctx, store, root, true); err != nil {
		return err
	}

	printInfo("Watching %s (%d directories). Press Ctrl+C to stop.", root, w.Watched())

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	w.Run(ctx, func(paths []string) {
		printVerbose("%d paths changed", len(paths))
		if err := watchCycle(ctx, store, root, false); err != nil {
			cancel(err)
		}
	})

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printInfo("Stopped watching %s.", root)
	return nil
}

// watchCycle scans root, compares it with the baseline and renders the
// result. Only integrity failures and store errors end the watch; scan
// failures are reported and the next cycle tries again.
func watchCycle(ctx context.Context, store *snapshot.Store, root string, first bool) error {
	result, err := scanDirectory(ctx, root)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		printError("%v", err)
		return nil
	}

	report, err := compareWithBaseline(store, root, result)
	switch {
	case errors.Is(err, snapshot.ErrNoBaseline) && watchUpdate:
		meta, err := store.Save(root, result.Files)
		if err != nil {
			return err
		}
		printInfo("Saved baseline %s (%d images)", meta.Snapshot, meta.FileCount)
		return nil
	case err != nil:
		if herr := handleBaselineError(err); herr != nil {
			return herr
		}
		return nil
	}

	if !first && report.Diff.Empty() {
		printVerbose("No changes at %s", time.Now().Format(time.TimeOnly))
		return nil
	}

	if !first {
		printInfo("\n[%s]", time.Now().Format(time.TimeOnly))
	}
	if err := render(report); err != nil {
		return err
	}

	if watchUpdate && !report.Diff.Empty() {
		meta, err := store.Save(root, result.Files)
		if err != nil {
			return err
		}
		printInfo("Accepted changes as %s", meta.Snapshot)
	}
	return nil
}

// storeExcludes keeps the watcher out of the snapshot store when it lives
// inside the watched tree.
func storeExcludes(store *snapshot.Store) []string {
	var patterns []string
	for _, dir := range []string{store.Dir(), store.MetadataDir()} {
		if abs, err := filepath.Abs(dir); err == nil {
			patterns = append(patterns, filepath.ToSlash(abs))
		}
	}
	return patterns
}
