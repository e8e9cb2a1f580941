package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/diff"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/imageinfo"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/stats"
)

// document is the serialized shape shared by the json and yaml formatters.
type document struct {
	Kind      Kind            `json:"kind" yaml:"kind"`
	Source    string          `json:"source,omitempty" yaml:"source,omitempty"`
	Target    string          `json:"target,omitempty" yaml:"target,omitempty"`
	Files     []FileInfo      `json:"files,omitempty" yaml:"files,omitempty"`
	Changes   *diff.Result    `json:"changes,omitempty" yaml:"changes,omitempty"`
	Baseline  *Baseline       `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Stats     *stats.Stats    `json:"stats,omitempty" yaml:"stats,omitempty"`
	Image     *imageinfo.Info `json:"image,omitempty" yaml:"image,omitempty"`
	Snapshots []SnapshotInfo  `json:"snapshots,omitempty" yaml:"snapshots,omitempty"`
	Meta      documentMeta    `json:"meta" yaml:"meta"`
}

type documentMeta struct {
	TotalFiles int      `json:"total_files" yaml:"total_files"`
	TotalSize  int64    `json:"total_size" yaml:"total_size"`
	Duration   string   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Changed    bool     `json:"changed" yaml:"changed"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func buildDocument(r *Report) document {
	doc := document{
		Kind:      r.Kind,
		Source:    r.Source,
		Target:    r.Target,
		Files:     r.Files,
		Changes:   r.Diff,
		Baseline:  r.Baseline,
		Stats:     r.Stats,
		Image:     r.Image,
		Snapshots: r.Snapshots,
		Meta: documentMeta{
			TotalFiles: len(r.Files),
			TotalSize:  r.TotalSize(),
			Duration:   formatDurationString(r.Duration),
			Warnings:   r.Warnings,
		},
	}
	if r.Diff != nil {
		doc.Meta.Changed = !r.Diff.Empty()
	}
	return doc
}

// formatDurationString formats a duration, or "" for zero.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// JSONFormatter writes a single indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
