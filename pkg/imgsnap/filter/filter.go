package filter

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// Matcher tests paths against a set of compiled glob patterns. A path
// matches when any pattern matches either the full path or its base name.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewMatcher compiles the patterns with '/' as the separator.
func NewMatcher(patterns ...string) (*Matcher, error) {
	m := &Matcher{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Empty reports whether the matcher has no patterns.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.globs) == 0
}

// Match reports whether path or its base name matches any pattern.
func (m *Matcher) Match(path string) bool {
	if m.Empty() {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range m.globs {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}

// Filter defines criteria for filtering, sorting, and limiting file lists.
type Filter struct {
	// Name matches the base name. A value containing glob metacharacters is
	// a case-insensitive glob; anything else is a case-insensitive substring.
	Name string

	// Year keeps files whose capture year equals it. 0 disables the check.
	Year int

	// Width and Height keep files with exactly these dimensions. Both 0
	// disables the check.
	Width  int
	Height int

	MinSize int64
	MaxSize int64

	// Extensions restricts results to these extensions. Empty allows all.
	Extensions []string

	OlderThan time.Duration
	NewerThan time.Duration

	SortBy         SortField
	SortDescending bool

	// Limit is the maximum number of files to return. 0 means unlimited.
	Limit int

	nameGlob glob.Glob
	now      func() time.Time
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// New creates a Filter sorted by path ascending with no limit.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{
		SortBy: SortPath,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	if hasGlobMeta(f.Name) {
		g, err := glob.Compile(strings.ToLower(f.Name))
		if err != nil {
			return nil, fmt.Errorf("invalid name pattern %q: %w", f.Name, err)
		}
		f.nameGlob = g
	}

	return f, nil
}

// WithCriteria copies the criteria that are set into the filter.
func WithCriteria(c Criteria) Option {
	return func(f *Filter) {
		if c.Name != "" {
			WithName(c.Name)(f)
		}
		if c.Year != 0 {
			WithYear(c.Year)(f)
		}
		if c.Width != 0 || c.Height != 0 {
			WithDimensions(c.Width, c.Height)(f)
		}
	}
}

// WithName sets the base-name criterion.
func WithName(name string) Option {
	return func(f *Filter) {
		f.Name = name
	}
}

// WithYear sets the capture-year criterion.
func WithYear(year int) Option {
	return func(f *Filter) {
		f.Year = year
	}
}

// WithDimensions sets the exact dimensions criterion.
func WithDimensions(width, height int) Option {
	return func(f *Filter) {
		f.Width = width
		f.Height = height
	}
}

// WithSizeRange keeps files within [minSize, maxSize]. A non-positive bound
// is ignored.
func WithSizeRange(minSize, maxSize int64) Option {
	return func(f *Filter) {
		f.MinSize = max(minSize, 0)
		f.MaxSize = max(maxSize, 0)
	}
}

// WithExtensions restricts results to the given extensions.
func WithExtensions(extensions ...string) Option {
	return func(f *Filter) {
		f.Extensions = NormalizeExtensions(extensions)
	}
}

// WithTypeGroups expands group names to their extensions. Unknown groups
// are ignored.
func WithTypeGroups(groups ...string) Option {
	return func(f *Filter) {
		var extensions []string
		for _, group := range groups {
			if exts, ok := TypeGroups[group]; ok {
				extensions = append(extensions, exts...)
			}
		}
		f.Extensions = extensions
	}
}

// WithOlderThan drops files modified more recently than d ago.
func WithOlderThan(d time.Duration) Option {
	return func(f *Filter) {
		f.OlderThan = d
	}
}

// WithNewerThan drops files modified longer than d ago.
func WithNewerThan(d time.Duration) Option {
	return func(f *Filter) {
		f.NewerThan = d
	}
}

// WithSortBy sets the field to sort results by.
func WithSortBy(field SortField) Option {
	return func(f *Filter) {
		f.SortBy = field
	}
}

// WithSortDescending sets whether to sort in descending order.
func WithSortDescending(desc bool) Option {
	return func(f *Filter) {
		f.SortDescending = desc
	}
}

// WithLimit sets the maximum number of files to return.
func WithLimit(limit int) Option {
	return func(f *Filter) {
		f.Limit = max(limit, 0)
	}
}

// WithClock overrides the time source used for age checks.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		f.now = now
	}
}

// NeedsDimensions reports whether matching requires Width and Height.
func (f *Filter) NeedsDimensions() bool {
	return f.Width > 0 || f.Height > 0
}

// NeedsYear reports whether matching requires Year.
func (f *Filter) NeedsYear() bool {
	return f.Year > 0
}

// Match returns true if the file satisfies every criterion.
func (f *Filter) Match(fi FileInfo) bool {
	return f.matchSize(fi) &&
		f.matchExtension(fi) &&
		f.matchName(fi) &&
		f.matchYear(fi) &&
		f.matchDimensions(fi) &&
		f.matchAge(fi)
}

func (f *Filter) matchSize(fi FileInfo) bool {
	if f.MinSize > 0 && fi.Size < f.MinSize {
		return false
	}
	return f.MaxSize <= 0 || fi.Size <= f.MaxSize
}

func (f *Filter) matchExtension(fi FileInfo) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	return slices.Contains(f.Extensions, strings.ToLower(fi.Ext))
}

func (f *Filter) matchName(fi FileInfo) bool {
	if f.Name == "" {
		return true
	}
	name := strings.ToLower(fi.Name)
	if f.nameGlob != nil {
		return f.nameGlob.Match(name)
	}
	return strings.Contains(name, strings.ToLower(f.Name))
}

func (f *Filter) matchYear(fi FileInfo) bool {
	return f.Year <= 0 || fi.Year == f.Year
}

func (f *Filter) matchDimensions(fi FileInfo) bool {
	if !f.NeedsDimensions() {
		return true
	}
	return fi.Width == f.Width && fi.Height == f.Height
}

func (f *Filter) matchAge(fi FileInfo) bool {
	if f.OlderThan <= 0 && f.NewerThan <= 0 {
		return true
	}
	now := time.Now()
	if f.now != nil {
		now = f.now()
	}

	if f.OlderThan > 0 && fi.ModTime.After(now.Add(-f.OlderThan)) {
		return false
	}
	if f.NewerThan > 0 && fi.ModTime.Before(now.Add(-f.NewerThan)) {
		return false
	}
	return true
}

// Sort returns a sorted copy of files. Ties fall back to path order.
func (f *Filter) Sort(files []FileInfo) []FileInfo {
	sorted := slices.Clone(files)
	if sorted == nil {
		return []FileInfo{}
	}

	slices.SortStableFunc(sorted, func(a, b FileInfo) int {
		var result int
		switch f.SortBy {
		case SortSize:
			result = cmp.Compare(a.Size, b.Size)
		case SortAge:
			result = a.ModTime.Compare(b.ModTime)
		case SortName:
			result = cmp.Compare(a.Name, b.Name)
		}
		if result == 0 {
			result = cmp.Compare(a.Path, b.Path)
		}

		if f.SortDescending {
			return -result
		}
		return result
	})

	return sorted
}

// Apply runs Match, Sort and Limit in that order.
func (f *Filter) Apply(files []FileInfo) []FileInfo {
	var matched []FileInfo
	for _, fi := range files {
		if f.Match(fi) {
			matched = append(matched, fi)
		}
	}

	sorted := f.Sort(matched)

	if f.Limit > 0 && len(sorted) > f.Limit {
		return sorted[:f.Limit]
	}
	return sorted
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
