package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/filter"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/output"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var listOpts listFlags

var listCmd = &cobra.Command{
	Use:   "list <dir>",
	Short: "List the supported images in a directory",
	Long: `Scan a directory and list every supported image with its size.

Examples:
  imgsnap list ~/Pictures
  imgsnap list --sort size --limit 20 ~/Pictures
  imgsnap list --type photo --newer-than 30d -o json ~/Pictures`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	addListFlags(listCmd, &listOpts)
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, args []string) error {
	f, err := buildFilter(listOpts)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	result, err := scanDirectory(ctx, args[0])
	if err != nil {
		return err
	}

	files := filterRecords(f, result.Files, nil)
	return render(&output.Report{
		Kind:     output.KindFiles,
		Source:   result.Root,
		Files:    files,
		Duration: result.Elapsed,
		Warnings: scanWarnings(result),
	})
}

// filterRecords applies f to records and returns output rows in filter
// order. enrich, when non-nil, fills the attributes f needs before matching.
func filterRecords(f *filter.Filter, records []types.FileRecord, enrich func(*filter.FileInfo)) []output.FileInfo {
	byPath := make(map[string]types.FileRecord, len(records))
	candidates := make([]filter.FileInfo, 0, len(records))
	for _, rec := range records {
		fi := filter.FromRecord(rec)
		if enrich != nil {
			enrich(&fi)
		}
		byPath[rec.Path] = rec
		candidates = append(candidates, fi)
	}

	selected := f.Apply(candidates)
	rows := make([]output.FileInfo, 0, len(selected))
	for _, fi := range selected {
		row := output.NewFileInfo(byPath[fi.Path])
		row.Width, row.Height = fi.Width, fi.Height
		rows = append(rows, row)
	}
	return rows
}
