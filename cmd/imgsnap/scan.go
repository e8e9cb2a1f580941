package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/viper"

	"github.com/jamesainslie/imgsnap/cmd/imgsnap/tui"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/journal"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/output"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/probecache"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/scanner"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/snapshot"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// scanOptions merges the configured scan settings with the CLI flags.
func scanOptions(root string) scanner.Options {
	opts := scanner.DefaultOptions()
	opts.Root = root
	opts.Extensions = appConfig.Scan.Extensions
	opts.ProbeContent = appConfig.Scan.ProbeContent && !viper.GetBool("no_probe")

	opts.Exclude = append(opts.Exclude, appConfig.Scan.Exclude...)
	opts.Exclude = append(opts.Exclude, viper.GetStringSlice("exclude")...)
	return opts
}

// showProgress reports whether the scan spinner should be drawn.
func showProgress() bool {
	return !getQuiet() && term.IsTerminal(os.Stderr.Fd())
}

// scanDirectory enumerates root with the probe cache attached when enabled.
func scanDirectory(ctx context.Context, root string) (*types.ScanResult, error) {
	opts := scanOptions(root)

	if cache := openProbeCache(); cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				printVerbose("Failed to close probe cache: %v", err)
			}
		}()
		opts.Cache = cache
	}

	run := func(ctx context.Context, onProgress func(types.ScanProgress)) (*types.ScanResult, error) {
		opts.OnProgress = onProgress
		return scanner.New(opts).Scan(ctx)
	}

	var (
		result *types.ScanResult
		err    error
	)
	if showProgress() {
		result, err = tui.Run(ctx, root, run)
	} else {
		result, err = run(ctx, nil)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, errors.New("scan interrupted")
		}
		return nil, err
	}

	printVerbose("Scanned %d files in %d directories in %v (%d images, cache %d/%d)",
		result.FilesScanned, result.DirsScanned, result.Elapsed,
		len(result.Files), result.CacheHits, result.CacheHits+result.CacheMisses)
	return result, nil
}

// openProbeCache opens the content-probe cache, or returns nil when it is
// disabled or unavailable. Scans work without it.
func openProbeCache() *probecache.Cache {
	if !appConfig.Cache.Enabled || viper.GetBool("no_cache") {
		return nil
	}
	if !appConfig.Scan.ProbeContent || viper.GetBool("no_probe") {
		return nil
	}

	cache, err := probecache.Open(appConfig.Cache.Path)
	if err != nil {
		printVerbose("Probe cache unavailable: %v", err)
		return nil
	}
	return cache
}

// scanWarnings turns per-path scan errors into report warnings.
func scanWarnings(result *types.ScanResult) []string {
	warnings := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		warnings = append(warnings, fmt.Sprintf("%s: %s", e.Path, e.Error))
	}
	return warnings
}

// openStore opens the snapshot store described by the configuration.
func openStore() (*snapshot.Store, error) {
	return snapshot.New(snapshot.Options{
		Dir:         appConfig.Store.Dir,
		MetadataDir: appConfig.Store.MetadataDir,
		Identity:    snapshot.Identity(appConfig.Store.Identity),
	})
}

// render writes report in the selected output format.
func render(report *output.Report) error {
	format := viper.GetString("output.format")
	if format == "" {
		format = appConfig.Output.Format
	}

	formatter, err := output.Get(format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// recordJournal appends an entry to the operation journal when enabled.
// Failures are reported in verbose mode only.
func recordJournal(e journal.Entry) {
	if !appConfig.Journal.Enabled {
		return
	}

	j, err := journal.New(appConfig.Journal.Path)
	if err != nil {
		printVerbose("Journal unavailable: %v", err)
		return
	}
	if _, err := j.Record(e); err != nil {
		printVerbose("Failed to record journal entry: %v", err)
		return
	}
	if _, err := j.Cleanup(appConfig.Journal.RetentionDays); err != nil {
		printVerbose("Failed to clean journal: %v", err)
	}
}

// printTamperWarning renders an integrity failure in a red box on stderr.
func printTamperWarning(err error) {
	var ie *snapshot.IntegrityError
	reason := err.Error()
	path := ""
	if errors.As(err, &ie) {
		reason = ie.Reason
		path = ie.Path
	}

	lines := output.ErrorStyle.Bold(true).Render("WARNING: snapshot integrity check failed") + "\n"
	if path != "" {
		lines += output.LabelStyle.Render("Snapshot: ") + path + "\n"
	}
	lines += output.LabelStyle.Render("Reason:   ") + reason + "\n"
	lines += output.MutedStyle.Render("The stored snapshot may have been modified. Run 'imgsnap save' to record a new baseline.")
	fmt.Fprintln(os.Stderr, output.ErrorBox.Render(lines))
}
