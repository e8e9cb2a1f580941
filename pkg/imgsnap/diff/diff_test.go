package diff

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name         string
		previous     map[string]int64
		current      map[string]int64
		wantNew      []string
		wantModified []string
		wantDeleted  []string
		wantRenamed  []Rename
	}{
		{
			name:         "same-size rename",
			previous:     map[string]int64{"/d/a.jpg": 1000},
			current:      map[string]int64{"/d/b.jpg": 1000},
			wantNew:      []string{},
			wantModified: []string{"/d/b.jpg"},
			wantDeleted:  []string{},
			wantRenamed:  []Rename{{From: "/d/a.jpg", To: "/d/b.jpg"}},
		},
		{
			name:         "genuine delete",
			previous:     map[string]int64{"/d/a.jpg": 1000, "/d/c.jpg": 2000},
			current:      map[string]int64{"/d/c.jpg": 2000},
			wantNew:      []string{},
			wantModified: []string{},
			wantDeleted:  []string{"/d/a.jpg"},
		},
		{
			name:         "size change",
			previous:     map[string]int64{"/d/a.jpg": 1000},
			current:      map[string]int64{"/d/a.jpg": 5000},
			wantNew:      []string{},
			wantModified: []string{"/d/a.jpg"},
			wantDeleted:  []string{},
		},
		{
			name:         "genuine addition",
			previous:     map[string]int64{"/d/a.jpg": 1000},
			current:      map[string]int64{"/d/a.jpg": 1000, "/d/new.png": 42},
			wantNew:      []string{"/d/new.png"},
			wantModified: []string{},
			wantDeleted:  []string{},
		},
		{
			name:         "both empty",
			previous:     map[string]int64{},
			current:      nil,
			wantNew:      []string{},
			wantModified: []string{},
			wantDeleted:  []string{},
		},
		{
			name:         "unchanged paths are not rename targets",
			previous:     map[string]int64{"/d/a.jpg": 10, "/d/b.jpg": 10},
			current:      map[string]int64{"/d/b.jpg": 10},
			wantNew:      []string{},
			wantModified: []string{},
			wantDeleted:  []string{"/d/a.jpg"},
		},
		{
			name:         "each candidate is consumed once",
			previous:     map[string]int64{"/d/a.jpg": 10, "/d/b.jpg": 10},
			current:      map[string]int64{"/d/x.jpg": 10},
			wantNew:      []string{},
			wantModified: []string{"/d/x.jpg"},
			wantDeleted:  []string{"/d/b.jpg"},
			wantRenamed:  []Rename{{From: "/d/a.jpg", To: "/d/x.jpg"}},
		},
		{
			name:         "pairing follows sorted order",
			previous:     map[string]int64{"/d/b.jpg": 7, "/d/a.jpg": 7},
			current:      map[string]int64{"/d/z.jpg": 7, "/d/y.jpg": 7},
			wantNew:      []string{},
			wantModified: []string{"/d/y.jpg", "/d/z.jpg"},
			wantDeleted:  []string{},
			wantRenamed: []Rename{
				{From: "/d/a.jpg", To: "/d/y.jpg"},
				{From: "/d/b.jpg", To: "/d/z.jpg"},
			},
		},
		{
			name:         "size mismatch is not a rename",
			previous:     map[string]int64{"/d/a.jpg": 1},
			current:      map[string]int64{"/d/b.jpg": 2},
			wantNew:      []string{"/d/b.jpg"},
			wantModified: []string{},
			wantDeleted:  []string{"/d/a.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.previous, tt.current)
			assert.Equal(t, tt.wantNew, got.New, "New")
			assert.Equal(t, tt.wantModified, got.Modified, "Modified")
			assert.Equal(t, tt.wantDeleted, got.Deleted, "Deleted")
			assert.Equal(t, tt.wantRenamed, got.Renamed, "Renamed")
		})
	}
}

func TestCompare_DoesNotMutateInputs(t *testing.T) {
	previous := map[string]int64{"/a": 1, "/b": 2}
	current := map[string]int64{"/c": 1}

	Compare(previous, current)

	assert.Equal(t, map[string]int64{"/a": 1, "/b": 2}, previous)
	assert.Equal(t, map[string]int64{"/c": 1}, current)
}

func TestResult_EmptyAndTotal(t *testing.T) {
	same := Compare(map[string]int64{"/a": 1}, map[string]int64{"/a": 1})
	assert.True(t, same.Empty())
	assert.Zero(t, same.Total())
	assert.Equal(t, 1, same.Unchanged)

	changed := Compare(map[string]int64{"/a": 1}, map[string]int64{"/b": 2})
	assert.False(t, changed.Empty())
	assert.Equal(t, 2, changed.Total())
}

func genMapping(label string) *rapid.Generator[map[string]int64] {
	// A small path and size space forces overlaps, renames and collisions.
	return rapid.MapOf(
		rapid.Custom(func(t *rapid.T) string {
			return fmt.Sprintf("/d/%d.jpg", rapid.IntRange(0, 12).Draw(t, label+"-path"))
		}),
		rapid.Int64Range(0, 4),
	)
}

func TestCompare_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		previous := genMapping("prev").Draw(t, "previous")
		current := genMapping("cur").Draw(t, "current")

		r := Compare(previous, current)

		seen := make(map[string]string)
		mark := func(list string, paths []string) {
			for _, p := range paths {
				if other, dup := seen[p]; dup {
					t.Fatalf("%s appears in both %s and %s", p, other, list)
				}
				seen[p] = list
			}
		}
		mark("New", r.New)
		mark("Modified", r.Modified)
		mark("Deleted", r.Deleted)

		unchanged := 0
		for p, size := range previous {
			if cur, ok := current[p]; ok && cur == size {
				unchanged++
				if _, reported := seen[p]; reported {
					t.Fatalf("unchanged path %s was reported as %s", p, seen[p])
				}
			}
		}
		require.Equal(t, unchanged, r.Unchanged)

		// Renamed-away paths are the only members of the union absent from
		// every list and not unchanged.
		renamedFrom := make(map[string]bool)
		for _, rn := range r.Renamed {
			renamedFrom[rn.From] = true
			require.Equal(t, previous[rn.From], current[rn.To], "rename sizes differ")
			require.Contains(t, r.Modified, rn.To)
			_, inPrev := previous[rn.To]
			require.False(t, inPrev, "rename target %s existed before", rn.To)
		}

		union := make(map[string]bool)
		for p := range previous {
			union[p] = true
		}
		for p := range current {
			union[p] = true
		}
		for p := range union {
			_, reported := seen[p]
			prevSize, inPrev := previous[p]
			curSize, inCur := current[p]
			isUnchanged := inPrev && inCur && prevSize == curSize
			if !reported && !isUnchanged && !renamedFrom[p] {
				t.Fatalf("path %s is unclassified", p)
			}
		}

		for _, list := range [][]string{r.New, r.Modified, r.Deleted} {
			require.True(t, slices.IsSorted(list))
		}

		again := Compare(previous, current)
		require.Equal(t, r, again, "Compare is not deterministic")
	})
}
