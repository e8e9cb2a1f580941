package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/filter"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name           string
		flags          listFlags
		wantSortBy     filter.SortField
		wantDescending bool
		wantLimit      int
		wantMinSize    int64
		wantMaxSize    int64
		wantErr        bool
	}{
		{
			name:       "default values",
			flags:      listFlags{sortBy: "path"},
			wantSortBy: filter.SortPath,
		},
		{
			name:           "size sorts largest first",
			flags:          listFlags{sortBy: "size", limit: 20},
			wantSortBy:     filter.SortSize,
			wantDescending: true,
			wantLimit:      20,
		},
		{
			name:       "reverse size sorts smallest first",
			flags:      listFlags{sortBy: "size", reverse: true},
			wantSortBy: filter.SortSize,
		},
		{
			name:           "reverse path sorts Z-A",
			flags:          listFlags{sortBy: "path", reverse: true},
			wantSortBy:     filter.SortPath,
			wantDescending: true,
		},
		{
			name:        "size range",
			flags:       listFlags{sortBy: "name", minSize: "1KiB", maxSize: "2MiB"},
			wantSortBy:  filter.SortName,
			wantMinSize: types.KiB,
			wantMaxSize: 2 * types.MiB,
		},
		{
			name:    "inverted size range",
			flags:   listFlags{sortBy: "path", minSize: "2MiB", maxSize: "1KiB"},
			wantErr: true,
		},
		{
			name:    "invalid size",
			flags:   listFlags{sortBy: "path", minSize: "lots"},
			wantErr: true,
		},
		{
			name:    "invalid sort field",
			flags:   listFlags{sortBy: "colour"},
			wantErr: true,
		},
		{
			name:    "invalid duration",
			flags:   listFlags{sortBy: "path", olderThan: "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := buildFilter(tt.flags)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSortBy, f.SortBy)
			assert.Equal(t, tt.wantDescending, f.SortDescending)
			assert.Equal(t, tt.wantLimit, f.Limit)
			assert.Equal(t, tt.wantMinSize, f.MinSize)
			assert.Equal(t, tt.wantMaxSize, f.MaxSize)
		})
	}
}

func TestBuildFilterDurations(t *testing.T) {
	f, err := buildFilter(listFlags{sortBy: "age", olderThan: "30d", newerThan: "1y"})
	require.NoError(t, err)
	assert.Equal(t, 30*filter.Day, f.OlderThan)
	assert.Equal(t, filter.Year, f.NewerThan)
	assert.True(t, f.SortDescending, "age sorts newest first")
}

func TestBuildFilterExtensionsOverrideTypes(t *testing.T) {
	f, err := buildFilter(listFlags{sortBy: "path", fileTypes: "photo", ext: "png, GIF"})
	require.NoError(t, err)
	assert.Equal(t, []string{".png", ".gif"}, f.Extensions)

	f, err = buildFilter(listFlags{sortBy: "path", fileTypes: "graphic"})
	require.NoError(t, err)
	assert.ElementsMatch(t, filter.TypeGroups["graphic"], f.Extensions)
}

func TestBuildFilterExtraOptions(t *testing.T) {
	c, err := filter.ParseCriteria([]string{"name=*.png", "date=2021"})
	require.NoError(t, err)

	f, err := buildFilter(listFlags{sortBy: "path"}, filter.WithCriteria(c))
	require.NoError(t, err)
	assert.Equal(t, "*.png", f.Name)
	assert.True(t, f.NeedsYear())
	assert.False(t, f.NeedsDimensions())
}

func TestBuildFilterName(t *testing.T) {
	f, err := buildFilter(listFlags{sortBy: "path", name: "IMG_*"})
	require.NoError(t, err)
	assert.Equal(t, "IMG_*", f.Name)

	c, err := filter.ParseCriteria([]string{"date=2021"})
	require.NoError(t, err)
	f, err = buildFilter(listFlags{sortBy: "path", name: "IMG_*"}, filter.WithCriteria(c))
	require.NoError(t, err)
	assert.Equal(t, "IMG_*", f.Name, "criteria without a name keep --name")
	assert.Equal(t, 2021, f.Year)
}

func TestBuildFilterRejectsBadNameGlob(t *testing.T) {
	_, err := buildFilter(listFlags{sortBy: "path", name: "[unclosed"})
	assert.Error(t, err)
}

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"png", []string{"png"}},
		{" png , gif ,, ", []string{"png", "gif"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommaSeparated(tt.input), "input %q", tt.input)
	}
}
