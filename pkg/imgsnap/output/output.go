// Package output renders imgsnap reports in various formats (pretty, plain,
// json, yaml, paths, patch).
//
// Formatters are looked up by name through a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/diff"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/imageinfo"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/stats"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var logger = logging.Get("output")

// ErrUnsupported is returned when a formatter cannot render a report kind.
var ErrUnsupported = errors.New("format not supported for this report")

// NoChangesMessage is printed for a comparison with nothing to report.
const NoChangesMessage = "No changes detected."

// Kind selects which sections of a Report are populated.
type Kind string

const (
	KindFiles     Kind = "files"
	KindCompare   Kind = "compare"
	KindStats     Kind = "stats"
	KindInfo      Kind = "info"
	KindSnapshots Kind = "snapshots"
)

// FileInfo is one row of a file listing.
type FileInfo struct {
	Path      string    `json:"path" yaml:"path"`
	Name      string    `json:"name" yaml:"name"`
	Ext       string    `json:"ext,omitempty" yaml:"ext,omitempty"`
	Size      int64     `json:"size" yaml:"size"`
	SizeHuman string    `json:"size_human" yaml:"size_human"`
	ModTime   time.Time `json:"mod_time" yaml:"mod_time"`
	MIME      string    `json:"mime,omitempty" yaml:"mime,omitempty"`
	Width     int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int       `json:"height,omitempty" yaml:"height,omitempty"`
}

// NewFileInfo converts a scanned record into a listing row.
func NewFileInfo(rec types.FileRecord) FileInfo {
	return FileInfo{
		Path:      rec.Path,
		Name:      filepath.Base(rec.Path),
		Ext:       rec.Ext,
		Size:      rec.Size,
		SizeHuman: types.FormatSize(rec.Size),
		ModTime:   rec.ModTime,
		MIME:      rec.MIME,
	}
}

// Baseline describes the snapshot a comparison ran against.
type Baseline struct {
	Name       string    `json:"name" yaml:"name"`
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
	FileCount  int       `json:"file_count" yaml:"file_count"`
	Skipped    int       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// SnapshotInfo is one row of the stored snapshot listing.
type SnapshotInfo struct {
	Target     string    `json:"target" yaml:"target"`
	Name       string    `json:"name" yaml:"name"`
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
	Size       int64     `json:"size" yaml:"size"`
	FileCount  int       `json:"file_count" yaml:"file_count"`
}

// Report is the input to every formatter. Kind decides which fields are
// meaningful.
type Report struct {
	Kind   Kind
	Source string
	Target string

	Files []FileInfo

	Diff     *diff.Result
	Baseline *Baseline

	// Previous and Current are the path→size mappings the diff was computed
	// from. Only the patch formatter needs them.
	Previous map[string]int64
	Current  map[string]int64

	Stats     *stats.Stats
	Image     *imageinfo.Info
	Snapshots []SnapshotInfo

	Duration time.Duration
	Warnings []string
}

// TotalSize returns the sum of all listed file sizes.
func (r *Report) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// Formatter writes a report to a buffer.
type Formatter interface {
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the sorted registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

func unsupported(format string, kind Kind) error {
	logger.Debug("unsupported report kind", "format", format, "kind", kind)
	return fmt.Errorf("%s output for %s: %w", format, kind, ErrUnsupported)
}
