package output

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"github.com/pmezard/go-difflib/difflib"
)

// patchContext is the number of unchanged listing lines kept around a hunk.
const patchContext = 1

// PatchFormatter renders a comparison as a unified diff between the stored
// listing and the current one, one "path=size" line per file in path order.
type PatchFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PatchFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Kind != KindCompare {
		return unsupported("patch", r.Kind)
	}

	from := "a/" + r.Target
	if r.Baseline != nil {
		from = "a/" + r.Baseline.Name
	}

	u := difflib.UnifiedDiff{
		A:        listing(r.Previous),
		B:        listing(r.Current),
		FromFile: from,
		ToFile:   "b/" + r.Target,
		Context:  patchContext,
	}
	return difflib.WriteUnifiedDiff(w, u)
}

// listing renders a mapping as sorted "path=size" lines, newline terminated.
func listing(entries map[string]int64) []string {
	lines := make([]string, 0, len(entries))
	for _, p := range slices.Sorted(maps.Keys(entries)) {
		lines = append(lines, fmt.Sprintf("%s=%d\n", p, entries[p]))
	}
	return lines
}

func init() {
	Register("patch", func() Formatter {
		return &PatchFormatter{}
	})
}

var _ Formatter = (*PatchFormatter)(nil)
