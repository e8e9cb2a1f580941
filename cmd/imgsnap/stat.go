package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/output"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/stats"
)

var statCmd = &cobra.Command{
	Use:   "stat <dir>",
	Short: "Show statistics for a directory",
	Long: `Scan a directory and summarize it: file and image counts, total and
average sizes, the largest, smallest, newest and oldest image, and the
extension histogram.`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func runStat(_ *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	result, err := scanDirectory(ctx, args[0])
	if err != nil {
		return err
	}

	return render(&output.Report{
		Kind:     output.KindStats,
		Source:   result.Root,
		Stats:    stats.NewAnalyzer(result).Stats(),
		Duration: result.Elapsed,
		Warnings: scanWarnings(result),
	})
}
