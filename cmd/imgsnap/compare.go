package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/journal"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/output"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/snapshot"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare <dir>",
	Short: "Compare a directory with its last snapshot",
	Long: `Scan a directory and report images that are new, modified, deleted or
possibly renamed since the last snapshot.

A missing baseline is not an error. A snapshot whose integrity digest no
longer matches is reported as tampered and the command fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(_ *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	store, err := openStore()
	if err != nil {
		return err
	}

	result, err := scanDirectory(ctx, args[0])
	if err != nil {
		return err
	}

	report, err := compareWithBaseline(store, args[0], result)
	if err != nil {
		return handleBaselineError(err)
	}
	return render(report)
}

// compareWithBaseline classifies a scan against the newest snapshot and
// journals the outcome. Errors are returned for handleBaselineError.
func compareWithBaseline(store *snapshot.Store, dir string, result *types.ScanResult) (*output.Report, error) {
	entry := journal.Entry{
		Operation: journal.OpCompare,
		Source:    result.Root,
		Summary:   journal.Summary{Files: int64(len(result.Files)), Bytes: result.TotalImageSize()},
	}
	entry.Target, _ = store.Key(dir)

	snap, err := store.LoadLatest(dir)
	if err != nil {
		entry.Outcome, entry.Error = outcomeOf(err), err.Error()
		recordJournal(entry)
		return nil, err
	}
	entry.Snapshot = filepath.Base(snap.Path)
	entry.Hash = snap.Metadata.Hash

	changes, err := snapshot.CompareSnapshot(snap, result.Files)
	if err != nil {
		entry.Outcome, entry.Error = journal.OutcomeFailed, err.Error()
		recordJournal(entry)
		return nil, err
	}
	current, err := snapshot.Current(result.Files)
	if err != nil {
		return nil, err
	}

	summary := journal.SummarizeDiff(changes)
	summary.Files, summary.Bytes = entry.Summary.Files, entry.Summary.Bytes
	entry.Summary = summary
	entry.Outcome = journal.OutcomeUnchanged
	if !changes.Empty() {
		entry.Outcome = journal.OutcomeChanged
	}
	recordJournal(entry)

	report := &output.Report{
		Kind:     output.KindCompare,
		Source:   result.Root,
		Target:   snap.Target,
		Diff:     changes,
		Baseline: baselineOf(snap),
		Previous: snap.Entries,
		Current:  current,
		Duration: result.Elapsed,
		Warnings: scanWarnings(result),
	}
	if snap.Skipped > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d malformed snapshot line(s) ignored", snap.Skipped))
	}
	return report, nil
}

// handleBaselineError turns a missing baseline into a notice and an
// integrity failure into a tamper warning. Anything else is returned as is.
func handleBaselineError(err error) error {
	switch {
	case errors.Is(err, snapshot.ErrNoBaseline):
		printInfo("No baseline snapshot found. Run 'imgsnap save' to create one.")
		return nil
	case errors.Is(err, snapshot.ErrIntegrity):
		printTamperWarning(err)
		return err
	default:
		return err
	}
}

func outcomeOf(err error) journal.Outcome {
	switch {
	case errors.Is(err, snapshot.ErrNoBaseline):
		return journal.OutcomeNoBaseline
	case errors.Is(err, snapshot.ErrIntegrity):
		return journal.OutcomeTampered
	default:
		return journal.OutcomeFailed
	}
}

func baselineOf(snap *snapshot.Snapshot) *output.Baseline {
	b := &output.Baseline{
		Name:      filepath.Base(snap.Path),
		FileCount: len(snap.Entries),
		Skipped:   snap.Skipped,
	}
	if snap.Metadata != nil {
		if t, err := snap.Metadata.CapturedAt(); err == nil {
			b.CapturedAt = t
		}
	}
	return b
}
