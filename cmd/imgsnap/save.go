package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/journal"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var saveCmd = &cobra.Command{
	Use:   "save <dir>",
	Short: "Record a snapshot of a directory",
	Long: `Scan a directory for supported images and store their paths and sizes
as the new baseline. Older snapshots of the same directory are removed
once the new one is safely written.`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
}

func runSave(_ *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	dir := args[0]
	store, err := openStore()
	if err != nil {
		return err
	}

	result, err := scanDirectory(ctx, dir)
	if err != nil {
		return err
	}

	entry := journal.Entry{
		Operation: journal.OpSave,
		Source:    result.Root,
		Summary:   journal.Summary{Files: int64(len(result.Files)), Bytes: result.TotalImageSize()},
	}
	if entry.Target, err = store.Key(dir); err != nil {
		return err
	}

	meta, err := store.Save(dir, result.Files)
	if err != nil {
		entry.Outcome = journal.OutcomeFailed
		entry.Error = err.Error()
		recordJournal(entry)
		return err
	}

	entry.Outcome = journal.OutcomeOK
	entry.Snapshot = meta.Snapshot
	entry.Hash = meta.Hash
	recordJournal(entry)

	printInfo("Saved snapshot %s", meta.Snapshot)
	printInfo("  %d images, %s", meta.FileCount, types.FormatSize(result.TotalImageSize()))
	printVerbose("Digest %s", meta.Hash)
	for _, w := range scanWarnings(result) {
		printVerbose("Skipped %s", w)
	}
	return nil
}
