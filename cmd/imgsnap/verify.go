package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/journal"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/snapshot"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <dir>",
	Short: "Check the integrity of a directory's snapshot",
	Long: `Recompute the integrity digest of the newest snapshot for a directory
and compare it with the stored metadata. The directory itself is not
scanned.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	entry := journal.Entry{Operation: journal.OpVerify}
	if entry.Target, err = store.Key(args[0]); err != nil {
		return err
	}

	meta, err := store.Verify(args[0])
	if err != nil {
		entry.Outcome, entry.Error = outcomeOf(err), err.Error()
		var ie *snapshot.IntegrityError
		if errors.As(err, &ie) {
			entry.Snapshot = ie.Path
		}
		recordJournal(entry)
		return handleBaselineError(err)
	}

	entry.Outcome = journal.OutcomeOK
	entry.Snapshot = meta.Snapshot
	entry.Hash = meta.Hash
	entry.Summary.Files = int64(meta.FileCount)
	recordJournal(entry)

	printInfo("Snapshot %s is intact", meta.Snapshot)
	printVerbose("Digest %s, %d entries, captured %s", meta.Hash, meta.FileCount, meta.Timestamp)
	return nil
}
