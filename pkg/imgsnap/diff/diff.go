// Package diff classifies the changes between two path→size mappings.
//
// Every path of previous ∪ current lands in exactly one of New, Modified,
// Deleted or the implicit Unchanged. A path missing from current is paired
// with a same-size path that exists only in current and is reported as a
// modification of that path instead of a deletion plus an addition.
package diff

import (
	"maps"
	"slices"
)

// Rename records a missing path paired with a same-size new path.
type Rename struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Result is the classified delta. Each list is sorted ascending.
type Result struct {
	New      []string `json:"new" yaml:"new"`
	Modified []string `json:"modified" yaml:"modified"`
	Deleted  []string `json:"deleted" yaml:"deleted"`

	// Renamed is informational: every To also appears in Modified.
	Renamed []Rename `json:"renamed,omitempty" yaml:"renamed,omitempty"`

	// Unchanged counts paths present in both with equal size.
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// Empty reports whether nothing changed.
func (r *Result) Empty() bool {
	return len(r.New) == 0 && len(r.Modified) == 0 && len(r.Deleted) == 0
}

// Total returns the number of reported changes.
func (r *Result) Total() int {
	return len(r.New) + len(r.Modified) + len(r.Deleted)
}

// Compare classifies current against previous. It is pure and deterministic:
// missing paths are visited in sorted order and each takes the smallest
// unconsumed current-only path of the same size.
func Compare(previous, current map[string]int64) *Result {
	r := &Result{
		New:      []string{},
		Modified: []string{},
		Deleted:  []string{},
	}

	var missing []string
	for _, p := range slices.Sorted(maps.Keys(previous)) {
		size := previous[p]
		cur, ok := current[p]
		switch {
		case !ok:
			missing = append(missing, p)
		case cur != size:
			r.Modified = append(r.Modified, p)
		default:
			r.Unchanged++
		}
	}

	// Current-only paths grouped by size, each group in sorted order.
	candidates := make(map[int64][]string)
	var added []string
	for _, q := range slices.Sorted(maps.Keys(current)) {
		if _, ok := previous[q]; ok {
			continue
		}
		added = append(added, q)
		candidates[current[q]] = append(candidates[current[q]], q)
	}

	consumed := make(map[string]bool)
	for _, p := range missing {
		group := candidates[previous[p]]
		if len(group) == 0 {
			r.Deleted = append(r.Deleted, p)
			continue
		}
		q := group[0]
		candidates[previous[p]] = group[1:]
		consumed[q] = true
		r.Modified = append(r.Modified, q)
		r.Renamed = append(r.Renamed, Rename{From: p, To: q})
	}

	for _, q := range added {
		if !consumed[q] {
			r.New = append(r.New, q)
		}
	}

	slices.Sort(r.Modified)
	return r
}
