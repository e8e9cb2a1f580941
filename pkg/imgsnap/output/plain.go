package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// PlainFormatter writes unstyled, tab-aligned text suitable for scripting.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	switch r.Kind {
	case KindCompare:
		d := r.Diff
		if d == nil || d.Empty() {
			fmt.Fprintln(tw, NoChangesMessage)
			break
		}
		for _, p := range d.New {
			fmt.Fprintf(tw, "NEW\t%s\n", p)
		}
		for _, p := range d.Modified {
			fmt.Fprintf(tw, "MODIFIED\t%s\n", p)
		}
		for _, p := range d.Deleted {
			fmt.Fprintf(tw, "DELETED\t%s\n", p)
		}
		for _, rn := range d.Renamed {
			fmt.Fprintf(tw, "RENAMED\t%s -> %s\n", rn.From, rn.To)
		}

	case KindStats:
		s := r.Stats
		if s == nil {
			break
		}
		fmt.Fprintf(tw, "root\t%s\n", s.Root)
		fmt.Fprintf(tw, "files\t%d\n", s.TotalFiles)
		fmt.Fprintf(tw, "images\t%d\n", s.ImageFiles)
		fmt.Fprintf(tw, "empty_files\t%d\n", s.EmptyFiles)
		fmt.Fprintf(tw, "subdirectories\t%d\n", s.Subdirectories)
		fmt.Fprintf(tw, "total_size\t%d\n", s.TotalSize)
		fmt.Fprintf(tw, "average_size\t%d\n", s.AverageSize)
		fmt.Fprintf(tw, "most_common_ext\t%s\n", s.MostCommonExt)
		fmt.Fprintf(tw, "extensions\t%s\n", strings.Join(s.Extensions, ","))
		if s.Largest != nil {
			fmt.Fprintf(tw, "largest\t%s\n", s.Largest.Path)
		}
		if s.Smallest != nil {
			fmt.Fprintf(tw, "smallest\t%s\n", s.Smallest.Path)
		}
		if s.Newest != nil {
			fmt.Fprintf(tw, "newest\t%s\n", s.Newest.Path)
		}
		if s.Oldest != nil {
			fmt.Fprintf(tw, "oldest\t%s\n", s.Oldest.Path)
		}

	case KindInfo:
		info := r.Image
		if info == nil {
			break
		}
		fmt.Fprintf(tw, "path\t%s\n", info.Path)
		fmt.Fprintf(tw, "mime\t%s\n", info.MIME)
		fmt.Fprintf(tw, "format\t%s\n", info.Format)
		fmt.Fprintf(tw, "width\t%d\n", info.Width)
		fmt.Fprintf(tw, "height\t%d\n", info.Height)
		fmt.Fprintf(tw, "size\t%d\n", info.Size)
		fmt.Fprintf(tw, "created\t%s\n", info.CreateTime.Format(time.RFC3339))
		fmt.Fprintf(tw, "modified\t%s\n", info.ModTime.Format(time.RFC3339))
		for _, t := range info.Tags {
			fmt.Fprintf(tw, "exif.%s\t%s\n", t.Name, t.Value)
		}

	case KindSnapshots:
		fmt.Fprintln(tw, "TARGET\tCAPTURED\tFILES\tNAME")
		for _, s := range r.Snapshots {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Target, s.CapturedAt.Format(time.DateTime), s.FileCount, s.Name)
		}

	default:
		fmt.Fprintln(tw, "SIZE\tPATH")
		for _, file := range r.Files {
			fmt.Fprintf(tw, "%s\t%s\n", file.SizeHuman, file.Path)
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
