package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/output"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/snapshot"
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"ls"},
	Short:   "List stored snapshots",
	Long:    `List the newest stored snapshot of every directory.`,
	Args:    cobra.NoArgs,
	RunE:    runSnapshots,
}

var forgetCmd = &cobra.Command{
	Use:   "forget <dir>",
	Short: "Remove the snapshots of a directory",
	Long: `Delete every stored snapshot and metadata file for a directory. The
next compare reports that no baseline exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(forgetCmd)
}

func runSnapshots(_ *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	infos, err := store.List()
	if err != nil {
		return err
	}

	return render(&output.Report{
		Kind:      output.KindSnapshots,
		Source:    store.Dir(),
		Snapshots: snapshotRows(infos),
	})
}

// snapshotRows converts store listings to output rows. The capture time
// comes from the metadata when readable, else the file's mtime. An
// unknown entry count is reported as zero.
func snapshotRows(infos []snapshot.Info) []output.SnapshotInfo {
	rows := make([]output.SnapshotInfo, 0, len(infos))
	for _, info := range infos {
		row := output.SnapshotInfo{
			Target:     info.Target,
			Name:       info.Name,
			CapturedAt: info.ModTime,
			Size:       info.Size,
		}
		if info.Metadata != nil {
			row.FileCount = max(info.Metadata.FileCount, 0)
			if t, err := info.Metadata.CapturedAt(); err == nil {
				row.CapturedAt = t
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func runForget(_ *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Remove(args[0]); err != nil {
		if errors.Is(err, snapshot.ErrNoBaseline) {
			printInfo("No snapshot stored for %s.", args[0])
			return nil
		}
		return err
	}

	printInfo("Removed snapshots for %s.", args[0])
	return nil
}
