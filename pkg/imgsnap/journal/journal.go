package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
)

var logger = logging.Get("journal")

var (
	// ErrNotFound is returned by Get when no entry matches.
	ErrNotFound = errors.New("journal entry not found")

	// ErrAmbiguousID is returned by Get when an ID prefix matches several entries.
	ErrAmbiguousID = errors.New("ambiguous journal entry id")
)

const (
	entryExt  = ".json"
	fileStamp = "20060102T150405"
)

// Journal stores one JSON file per entry in a directory.
type Journal struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// New creates a Journal rooted at dir. The directory is created on the
// first write.
func New(dir string) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("journal directory cannot be empty")
	}
	return &Journal{dir: dir, now: time.Now}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Record assigns an ID and timestamp to e and persists it.
func (j *Journal) Record(e Entry) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	e.ID = uuid.NewString()
	e.Timestamp = j.now().UTC()

	data, err := json.MarshalIndent(&e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal journal entry: %w", err)
	}

	name := fmt.Sprintf("%s-%s-%s%s", e.Timestamp.Format(fileStamp), e.Operation, e.ID, entryExt)
	if err := fsutil.AtomicWrite(filepath.Join(j.dir, name), data, 0o600); err != nil {
		return nil, fmt.Errorf("write journal entry: %w", err)
	}

	logger.Debug("journal entry recorded", "id", e.ID, "op", e.Operation, "outcome", e.Outcome)
	return &e, nil
}

// List returns entries newest first. A limit of zero or less returns all.
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals id or, failing that, the single
// entry whose ID starts with it.
func (j *Journal) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		e := &entries[i]
		if e.ID == id {
			return e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%s: %w", id, ErrAmbiguousID)
			}
			match = e
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return match, nil
}

// Cleanup removes entries older than retentionDays and returns how many
// were removed. A retention of zero or less keeps everything.
func (j *Journal) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read journal directory: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(j.dir, f.Name())); err != nil {
				logger.Warn("failed to remove journal entry", "file", f.Name(), "error", err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		logger.Info("journal cleaned", "removed", removed, "retention_days", retentionDays)
	}
	return removed, nil
}

func (j *Journal) readAll() ([]Entry, error) {
	files, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read journal directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryExt) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(j.dir, f.Name()))
		if err != nil {
			logger.Warn("unreadable journal entry", "file", f.Name(), "error", err)
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			logger.Warn("corrupt journal entry", "file", f.Name(), "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
