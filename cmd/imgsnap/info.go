package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/imageinfo"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/output"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show details of a single image",
	Long:  `Show the MIME type, format, dimensions, timestamps and EXIF tags of an image.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(_ *cobra.Command, args []string) error {
	info, err := imageinfo.Read(args[0])
	if err != nil {
		return err
	}

	return render(&output.Report{
		Kind:   output.KindInfo,
		Source: info.Path,
		Image:  info,
	})
}
