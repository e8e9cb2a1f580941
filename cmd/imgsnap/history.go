package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/config"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/journal"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of save, compare and verify operations.

The journal keeps one record per operation with its outcome and change
counts. Records older than journal.retention_days are removed automatically.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific operation",
	Long:  `Display a journal record by its ID. A unique ID prefix is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getJournal returns the journal at the configured path.
func getJournal() (*journal.Journal, error) {
	path := appConfig.Journal.Path
	if path == "" {
		path = config.DefaultJournalPath()
	}
	return journal.New(path)
}

// runHistory lists recent operations.
func runHistory(_ *cobra.Command, _ []string) error {
	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	all, err := j.List(0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(all) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'imgsnap save <dir>' to record a snapshot.")
		return nil
	}

	entries := all
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	fmt.Printf("\n%-8s  %-19s  %-8s  %-11s  %-20s  %s\n", "ID", "TIME", "TYPE", "OUTCOME", "TARGET", "CHANGES")
	fmt.Println(strings.Repeat("-", 90))

	for _, entry := range entries {
		fmt.Printf("%-8s  %-19s  %-8s  %-11s  %-20s  %s\n",
			entry.ID[:min(len(entry.ID), 8)],
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Operation,
			entry.Outcome,
			truncateString(entry.Target, 20),
			changeSummary(entry),
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d of %d entries. Use --limit to see more.\n", len(entries), len(all))
	fmt.Println("Use 'imgsnap history show <id>' for details on a specific entry.")

	return nil
}

// runHistoryShow displays details of a specific operation.
func runHistoryShow(_ *cobra.Command, args []string) error {
	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	entry, err := j.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", entry.Operation)
	fmt.Printf("Outcome:    %s\n", entry.Outcome)
	fmt.Printf("Target:     %s\n", entry.Target)
	if entry.Source != "" {
		fmt.Printf("Source:     %s\n", entry.Source)
	}
	if entry.Snapshot != "" {
		fmt.Printf("Snapshot:   %s\n", entry.Snapshot)
	}
	if entry.Hash != "" {
		fmt.Printf("Digest:     %s\n", entry.Hash)
	}
	fmt.Printf("Files:      %d\n", entry.Summary.Files)
	if entry.Summary.Bytes > 0 {
		fmt.Printf("Total Size: %s\n", types.FormatSize(entry.Summary.Bytes))
	}

	if entry.Operation == journal.OpCompare && entry.Outcome != journal.OutcomeNoBaseline {
		fmt.Println("\nChanges:")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("New:        %d\n", entry.Summary.New)
		fmt.Printf("Modified:   %d\n", entry.Summary.Modified)
		fmt.Printf("Deleted:    %d\n", entry.Summary.Deleted)
		fmt.Printf("Renamed:    %d\n", entry.Summary.Renamed)
		fmt.Printf("Unchanged:  %d\n", entry.Summary.Unchanged)
	}

	if entry.Error != "" {
		fmt.Printf("\nError: %s\n", entry.Error)
	}
	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	retentionDays := appConfig.Journal.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := j.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete (%d removed).", removed)
	return nil
}

// changeSummary renders the change counts of a compare entry as
// "+new ~modified -deleted >renamed".
func changeSummary(e journal.Entry) string {
	if e.Operation != journal.OpCompare || e.Outcome == journal.OutcomeNoBaseline || e.Error != "" {
		return ""
	}
	s := e.Summary
	return fmt.Sprintf("+%d ~%d -%d >%d", s.New, s.Modified, s.Deleted, s.Renamed)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
