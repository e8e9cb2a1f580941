package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// PrettyFormatter renders styled terminal output using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	switch r.Kind {
	case KindCompare:
		f.formatCompare(w, r)
	case KindStats:
		f.formatStats(w, r)
	case KindInfo:
		f.formatInfo(w, r)
	case KindSnapshots:
		f.formatSnapshots(w, r)
	default:
		f.formatFiles(w, r)
	}

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatFiles(w *bytes.Buffer, r *Report) {
	w.WriteString(HeaderBox.Render(field("Source:", r.Source)))
	w.WriteString("\n")

	if len(r.Files) == 0 {
		w.WriteString(MutedStyle.Render("  No images found matching criteria"))
		w.WriteString("\n")
	} else {
		sizes := make([]string, len(r.Files))
		width := 8
		for i, file := range r.Files {
			sizes[i] = file.SizeHuman
			width = max(width, len(file.SizeHuman))
		}

		fmt.Fprintf(w, "  %s  %s\n", TableHeaderStyle.Render(padLeft("SIZE", width)), TableHeaderStyle.Render("PATH"))
		for i, file := range r.Files {
			line := fmt.Sprintf("  %s  %s", SizeStyle.Render(padLeft(sizes[i], width)), PathStyle.Render(file.Path))
			if file.Width > 0 {
				line += MutedStyle.Render(fmt.Sprintf("  %dx%d", file.Width, file.Height))
			}
			w.WriteString(line)
			w.WriteString("\n")
		}
	}

	footer := strings.Join([]string{
		field("Images:", fmt.Sprintf("%d", len(r.Files))),
		LabelStyle.Render("Total:") + " " + SizeStyle.Render(humanize.IBytes(uint64(r.TotalSize()))),
		MutedStyle.Render("Use -o plain for unformatted output"),
	}, "  ")
	w.WriteString(FooterBox.Render(footer))
	w.WriteString("\n")
}

func (f *PrettyFormatter) formatCompare(w *bytes.Buffer, r *Report) {
	lines := []string{field("Target:", r.Target)}
	if r.Source != "" {
		lines = append(lines, field("Source:", r.Source))
	}
	if b := r.Baseline; b != nil {
		when := b.CapturedAt.Format(time.DateTime)
		lines = append(lines, field("Baseline:", fmt.Sprintf("%s (%s, %d files)", b.Name, when, b.FileCount)))
	}
	w.WriteString(HeaderBox.Render(strings.Join(lines, "\n")))
	w.WriteString("\n")

	d := r.Diff
	if d == nil || d.Empty() {
		w.WriteString(SuccessStyle.Render(NoChangesMessage))
		w.WriteString("\n")
		return
	}

	section := func(title string, style lipgloss.Style, marker string, paths []string) {
		if len(paths) == 0 {
			return
		}
		w.WriteString(style.Bold(true).Render(fmt.Sprintf("● %s (%d):", title, len(paths))))
		w.WriteString("\n")
		for _, p := range paths {
			w.WriteString("  " + style.Render(marker) + " " + PathStyle.Render(p) + "\n")
		}
		w.WriteString("\n")
	}
	section("New files", AddedStyle, "+", d.New)
	section("Modified files", ModifiedStyle, "~", d.Modified)
	section("Deleted files", DeletedStyle, "-", d.Deleted)

	if len(d.Renamed) > 0 {
		w.WriteString(MutedStyle.Render(fmt.Sprintf("Possible renames (%d):", len(d.Renamed))))
		w.WriteString("\n")
		for _, rn := range d.Renamed {
			w.WriteString(MutedStyle.Render(fmt.Sprintf("  %s → %s", rn.From, rn.To)))
			w.WriteString("\n")
		}
	}

	footer := strings.Join([]string{
		AddedStyle.Render(fmt.Sprintf("+%d", len(d.New))),
		ModifiedStyle.Render(fmt.Sprintf("~%d", len(d.Modified))),
		DeletedStyle.Render(fmt.Sprintf("-%d", len(d.Deleted))),
		field("Unchanged:", fmt.Sprintf("%d", d.Unchanged)),
	}, "  ")
	w.WriteString(FooterBox.Render(footer))
	w.WriteString("\n")
}

func (f *PrettyFormatter) formatStats(w *bytes.Buffer, r *Report) {
	s := r.Stats
	if s == nil {
		w.WriteString(MutedStyle.Render("No statistics available"))
		w.WriteString("\n")
		return
	}

	w.WriteString(HeaderBox.Render(field("Directory:", s.Root)))
	w.WriteString("\n")

	rows := [][2]string{
		{"Files", humanize.Comma(s.TotalFiles)},
		{"Images", humanize.Comma(s.ImageFiles)},
		{"Empty files", humanize.Comma(s.EmptyFiles)},
		{"Subdirectories", humanize.Comma(s.Subdirectories)},
		{"Total size", types.FormatSize(s.TotalSize)},
		{"Image size", types.FormatSize(s.ImageSize)},
		{"Average size", types.FormatSize(s.AverageSize)},
		{"Most common ext", s.MostCommonExt},
		{"Extensions", strings.Join(s.Extensions, ", ")},
	}
	if s.Largest != nil {
		rows = append(rows, [2]string{"Largest", fmt.Sprintf("%s (%s)", s.Largest.Path, types.FormatSize(s.Largest.Size))})
	}
	if s.Smallest != nil {
		rows = append(rows, [2]string{"Smallest", fmt.Sprintf("%s (%s)", s.Smallest.Path, types.FormatSize(s.Smallest.Size))})
	}
	if s.Newest != nil {
		rows = append(rows, [2]string{"Newest", fmt.Sprintf("%s (%s)", s.Newest.Path, humanize.Time(s.Newest.ModTime))})
	}
	if s.Oldest != nil {
		rows = append(rows, [2]string{"Oldest", fmt.Sprintf("%s (%s)", s.Oldest.Path, humanize.Time(s.Oldest.ModTime))})
	}
	writeRows(w, rows)

	if len(s.Histogram) > 0 {
		w.WriteString("\n")
		w.WriteString(TitleStyle.Render("Extensions"))
		w.WriteString("\n")
		for _, h := range s.Histogram {
			fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render(padRight(h.Ext, 8)), ValueStyle.Render(humanize.Comma(h.Count)))
		}
	}
}

func (f *PrettyFormatter) formatInfo(w *bytes.Buffer, r *Report) {
	info := r.Image
	if info == nil {
		return
	}

	w.WriteString(HeaderBox.Render(field("File:", info.Path)))
	w.WriteString("\n")

	dims := "unknown"
	if info.HasDimensions() {
		dims = fmt.Sprintf("%d x %d", info.Width, info.Height)
	}
	rows := [][2]string{
		{"MIME type", info.MIME},
		{"Format", info.Format},
		{"Dimensions", dims},
		{"Size", fmt.Sprintf("%s (%s bytes)", types.FormatSize(info.Size), humanize.Comma(info.Size))},
		{"Created", info.CreateTime.Format(time.DateTime)},
		{"Last modified", info.ModTime.Format(time.DateTime)},
	}
	if !info.Taken.IsZero() {
		rows = append(rows, [2]string{"Taken", info.Taken.Format(time.DateTime)})
	}
	if info.HasThumbnail {
		rows = append(rows, [2]string{"Thumbnail", "embedded"})
	}
	writeRows(w, rows)

	if len(info.Tags) > 0 {
		w.WriteString("\n")
		w.WriteString(TitleStyle.Render(fmt.Sprintf("EXIF (%d tags)", len(info.Tags))))
		w.WriteString("\n")
		width := 0
		for _, t := range info.Tags {
			width = max(width, len(t.Name))
		}
		for _, t := range info.Tags {
			fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render(padRight(t.Name, width)), ValueStyle.Render(t.Value))
		}
	}
}

func (f *PrettyFormatter) formatSnapshots(w *bytes.Buffer, r *Report) {
	if len(r.Snapshots) == 0 {
		w.WriteString(MutedStyle.Render("No snapshots stored"))
		w.WriteString("\n")
		return
	}
	for _, s := range r.Snapshots {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			TitleStyle.Render(s.Target),
			ValueStyle.Render(s.CapturedAt.Format(time.DateTime)),
			LabelStyle.Render(fmt.Sprintf("%d files", s.FileCount)),
			MutedStyle.Render(s.Name))
	}
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func field(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func writeRows(w *bytes.Buffer, rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %s  %s\n", LabelStyle.Render(padRight(row[0], width)), ValueStyle.Render(row[1]))
	}
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
