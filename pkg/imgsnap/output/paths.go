package output

import (
	"bytes"
)

// PathsFormatter writes one path per line for piping into other tools.
// For a comparison it lists the paths that exist now and changed, that is
// New followed by Modified.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Report) error {
	switch r.Kind {
	case KindFiles:
		for _, file := range r.Files {
			w.WriteString(file.Path)
			w.WriteByte('\n')
		}
	case KindCompare:
		if r.Diff == nil {
			return nil
		}
		for _, p := range r.Diff.New {
			w.WriteString(p)
			w.WriteByte('\n')
		}
		for _, p := range r.Diff.Modified {
			w.WriteString(p)
			w.WriteByte('\n')
		}
	case KindSnapshots:
		for _, s := range r.Snapshots {
			w.WriteString(s.Name)
			w.WriteByte('\n')
		}
	default:
		return unsupported("paths", r.Kind)
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

var _ Formatter = (*PathsFormatter)(nil)
