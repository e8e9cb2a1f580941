// Package snapshot persists one path→size snapshot per target directory,
// protects it with an integrity digest, and compares it against a fresh
// enumeration.
//
// Layout, relative to the configured directories:
//
//	<dir>/<key>_snapshot_<YYYYMMDD_HHmmss>.txt            path=size lines
//	<metadata dir>/<key>_snapshot_<YYYYMMDD_HHmmss>.txt.metadata
//
// The digest covers the snapshot bytes plus the file's birth and
// modification times, so copying, touching or editing a snapshot is
// detected on the next load.
package snapshot

import (
	"bufio"
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var logger = logging.Get("snapshot")

const (
	snapshotInfix   = "_snapshot_"
	snapshotExt     = ".txt"
	metadataExt     = ".metadata"
	timestampLayout = "20060102_150405"

	filePerm = 0o600
	dirPerm  = 0o700
)

// Options configures a Store.
type Options struct {
	// Dir holds snapshot files.
	Dir string

	// MetadataDir holds the paired metadata files.
	MetadataDir string

	// Identity maps target directories to keys. Empty means IdentityName.
	Identity Identity

	// Now supplies the capture time. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a loaded, verified snapshot.
type Snapshot struct {
	Target string
	Path   string

	// Entries maps normalized absolute paths to sizes.
	Entries map[string]int64

	// Order lists Entries keys in file order.
	Order []string

	Metadata *Metadata

	// Skipped counts malformed or duplicate lines that were ignored.
	Skipped int
}

// Info describes a stored snapshot without loading its entries.
type Info struct {
	Target   string    `json:"target" yaml:"target"`
	Name     string    `json:"name" yaml:"name"`
	Path     string    `json:"path" yaml:"path"`
	ModTime  time.Time `json:"mod_time" yaml:"mod_time"`
	Size     int64     `json:"size" yaml:"size"`
	Metadata *Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Store reads and writes snapshots. A Store is not safe for use by several
// processes against the same directories.
type Store struct {
	dir      string
	metaDir  string
	identity Identity
	now      func() time.Time
}

// New creates the store directories and restricts them to the owner.
// Restriction failures are logged, not returned.
func New(opts Options) (*Store, error) {
	id, err := ParseIdentity(string(opts.Identity))
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:      cmp.Or(opts.Dir, "snapshots"),
		metaDir:  cmp.Or(opts.MetadataDir, "snapshot_metadata"),
		identity: id,
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	for _, dir := range []string{s.dir, s.metaDir} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		restrict(dir, true)
	}
	return s, nil
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string { return s.dir }

// MetadataDir returns the metadata directory.
func (s *Store) MetadataDir() string { return s.metaDir }

// Key returns the snapshot key for a target directory.
func (s *Store) Key(target string) (string, error) {
	return s.identity.Key(target)
}

// Save writes a new snapshot of records for target and removes every
// older snapshot of the same key. Duplicate paths keep their first size.
func (s *Store) Save(target string, records []types.FileRecord) (*Metadata, error) {
	key, err := s.Key(target)
	if err != nil {
		return nil, err
	}

	order, entries, err := normalizeRecords(records)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	written := 0
	for _, r := range order {
		if strings.ContainsAny(r.path, "\r\n") {
			logger.Warn("skipping path that cannot be stored", "path", strconv.Quote(r.path))
			continue
		}
		buf.WriteString(r.path)
		buf.WriteByte('=')
		buf.WriteString(strconv.FormatInt(entries[r.key], 10))
		buf.WriteByte('\n')
		written++
	}

	stamp := s.now().Format(timestampLayout)
	name := key + snapshotInfix + stamp + snapshotExt
	snapPath := filepath.Join(s.dir, name)
	metaPath := s.metadataPath(name)

	if err := fsutil.AtomicWrite(snapPath, buf.Bytes(), filePerm); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	digest, _, err := Digest(snapPath)
	if err != nil {
		return nil, fmt.Errorf("digest snapshot: %w", err)
	}

	meta := &Metadata{
		Hash:      digest,
		Timestamp: stamp,
		FileSize:  int64(buf.Len()),
		FileCount: written,
		Snapshot:  name,
	}
	if err := fsutil.AtomicWrite(metaPath, meta.Encode(), filePerm); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	removed, err := s.removeSnapshots(key, name)
	if err != nil {
		return nil, err
	}

	restrict(snapPath, false)
	restrict(metaPath, false)

	logger.Info("snapshot saved",
		"target", key,
		"file", name,
		"entries", written,
		"superseded", removed)

	return meta, nil
}

// LoadLatest loads and verifies the newest snapshot for target. It returns
// ErrNoBaseline when none exists and an *IntegrityError when verification
// fails. Malformed lines are skipped and counted.
func (s *Store) LoadLatest(target string) (*Snapshot, error) {
	key, err := s.Key(target)
	if err != nil {
		return nil, err
	}

	path, err := s.latest(key)
	if err != nil {
		return nil, err
	}

	meta, data, err := s.verify(path)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Target:   key,
		Path:     path,
		Entries:  make(map[string]int64),
		Metadata: meta,
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		p, size, err := parseLine(line)
		if err != nil {
			logger.Warn("skipping malformed snapshot line", "file", filepath.Base(path), "line", lineNo, "reason", err)
			snap.Skipped++
			continue
		}
		if _, dup := snap.Entries[p]; dup {
			logger.Warn("skipping duplicate snapshot line", "file", filepath.Base(path), "line", lineNo, "path", p)
			snap.Skipped++
			continue
		}
		snap.Entries[p] = size
		snap.Order = append(snap.Order, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	logger.Debug("snapshot loaded", "target", key, "entries", len(snap.Entries), "skipped", snap.Skipped)
	return snap, nil
}

// Verify checks the newest snapshot for target without parsing entries.
func (s *Store) Verify(target string) (*Metadata, error) {
	key, err := s.Key(target)
	if err != nil {
		return nil, err
	}
	path, err := s.latest(key)
	if err != nil {
		return nil, err
	}
	meta, _, err := s.verify(path)
	return meta, err
}

// List returns the newest snapshot of every key, sorted by key.
// Metadata is nil when the paired file is missing or unreadable.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dir, err)
	}

	latest := make(map[string]Info)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		key, ok := splitName(e.Name())
		if !ok {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}

		info := Info{
			Target:  key,
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
		}
		if prev, ok := latest[key]; ok && !newer(info.ModTime, info.Name, prev.ModTime, prev.Name) {
			continue
		}
		latest[key] = info
	}

	infos := make([]Info, 0, len(latest))
	for _, info := range latest {
		if data, err := os.ReadFile(s.metadataPath(info.Name)); err == nil {
			if meta, err := ParseMetadata(data); err == nil {
				meta.Snapshot = info.Name
				info.Metadata = meta
			}
		}
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(a.Target, b.Target)
	})
	return infos, nil
}

// Remove deletes every snapshot and metadata file for target. It returns
// ErrNoBaseline when there was nothing to remove.
func (s *Store) Remove(target string) error {
	key, err := s.Key(target)
	if err != nil {
		return err
	}

	removed, err := s.removeSnapshots(key, "")
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNoBaseline
	}

	logger.Info("snapshot removed", "target", key, "files", removed)
	return nil
}

// latest returns the path of the newest snapshot for key by mtime, with
// ties going to the greatest file name.
func (s *Store) latest(key string) (string, error) {
	names, err := s.snapshotNames(key)
	if err != nil {
		return "", err
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, name := range names {
		fi, err := os.Stat(filepath.Join(s.dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", err
		}
		if best == "" || newer(fi.ModTime(), name, bestMod, best) {
			best, bestMod = name, fi.ModTime()
		}
	}

	if best == "" {
		return "", ErrNoBaseline
	}
	return filepath.Join(s.dir, best), nil
}

// verify checks a snapshot against its metadata and returns both along
// with the bytes the digest was computed over.
func (s *Store) verify(path string) (*Metadata, []byte, error) {
	name := filepath.Base(path)

	metaBytes, err := os.ReadFile(s.metadataPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, &IntegrityError{Path: path, Reason: "metadata file missing"}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read metadata: %w", err)
	}

	meta, err := ParseMetadata(metaBytes)
	if err != nil {
		return nil, nil, &IntegrityError{Path: path, Reason: "metadata unreadable: " + err.Error()}
	}
	meta.Snapshot = name
	if meta.Hash == "" {
		return nil, nil, &IntegrityError{Path: path, Reason: "metadata has no hash"}
	}

	digest, data, err := Digest(path)
	if err != nil {
		return nil, nil, fmt.Errorf("digest snapshot: %w", err)
	}
	if digest != meta.Hash {
		logger.Error("snapshot digest mismatch", "file", name)
		return nil, nil, &IntegrityError{Path: path, Reason: "digest mismatch"}
	}
	if meta.FileSize >= 0 && meta.FileSize != int64(len(data)) {
		return nil, nil, &IntegrityError{Path: path, Reason: "file size mismatch"}
	}

	return meta, data, nil
}

// snapshotNames lists the snapshot file names whose key is exactly key.
func (s *Store) snapshotNames(key string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if k, ok := splitName(e.Name()); ok && k == key {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// metadataNames lists the snapshot names that have a metadata file for
// key, whether or not the snapshot itself still exists.
func (s *Store) metadataNames(key string) ([]string, error) {
	entries, err := os.ReadDir(s.metaDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.metaDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, found := strings.CutSuffix(e.Name(), metadataExt)
		if !found {
			continue
		}
		if k, ok := splitName(name); ok && k == key {
			names = append(names, name)
		}
	}
	return names, nil
}

// removeSnapshots deletes key's snapshots and metadata files except those
// of keep. It returns how many snapshots were removed, counting a metadata
// file without a snapshot as one.
func (s *Store) removeSnapshots(key, keep string) (int, error) {
	names, err := s.snapshotNames(key)
	if err != nil {
		return 0, err
	}

	removed := 0
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == keep {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove snapshot %s: %w", name, err)
		}
		seen[name] = true
		removed++
	}

	metaNames, err := s.metadataNames(key)
	if err != nil {
		return removed, err
	}
	for _, name := range metaNames {
		if name == keep {
			continue
		}
		if err := os.Remove(s.metadataPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove metadata %s: %w", name, err)
		}
		if !seen[name] {
			logger.Debug("removed orphaned metadata", "file", name+metadataExt)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) metadataPath(snapshotName string) string {
	return filepath.Join(s.metaDir, snapshotName+metadataExt)
}

// splitName parses <key>_snapshot_<YYYYMMDD_HHmmss>.txt.
func splitName(name string) (key string, ok bool) {
	stem, found := strings.CutSuffix(name, snapshotExt)
	if !found || len(stem) < len(snapshotInfix)+len(timestampLayout)+1 {
		return "", false
	}

	stamp := stem[len(stem)-len(timestampLayout):]
	if _, err := time.Parse(timestampLayout, stamp); err != nil {
		return "", false
	}

	rest := stem[:len(stem)-len(timestampLayout)]
	key, found = strings.CutSuffix(rest, snapshotInfix)
	if !found || key == "" {
		return "", false
	}
	return key, true
}

// newer orders snapshots by mtime, then by name.
func newer(aMod time.Time, aName string, bMod time.Time, bName string) bool {
	if c := aMod.Compare(bMod); c != 0 {
		return c > 0
	}
	return aName > bName
}

// parseLine splits a path=size line at its last '='.
func parseLine(line string) (string, int64, error) {
	idx := strings.LastIndexByte(line, '=')
	if idx < 0 {
		return "", 0, errors.New("missing '='")
	}

	raw, sizeText := line[:idx], strings.TrimSpace(line[idx+1:])
	if raw == "" {
		return "", 0, errors.New("empty path")
	}

	size, err := strconv.ParseInt(sizeText, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid size %q", sizeText)
	}
	if size < 0 {
		return "", 0, fmt.Errorf("negative size %d", size)
	}

	p, err := fsutil.NormalizePath(raw)
	if err != nil {
		return "", 0, err
	}
	return p, size, nil
}

// storedPath is a record path as written to disk and the key it is
// compared under.
type storedPath struct {
	path string
	key  string
}

// normalizeRecords returns the records' absolute paths in first-seen order
// and their sizes keyed by the NFC form. Later duplicates of a key are
// dropped.
func normalizeRecords(records []types.FileRecord) ([]storedPath, map[string]int64, error) {
	order := make([]storedPath, 0, len(records))
	entries := make(map[string]int64, len(records))

	for _, r := range records {
		abs, err := fsutil.AbsPath(r.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("normalize %q: %w", r.Path, err)
		}
		key, err := fsutil.NormalizePath(abs)
		if err != nil {
			return nil, nil, fmt.Errorf("normalize %q: %w", r.Path, err)
		}
		if _, dup := entries[key]; dup {
			continue
		}
		entries[key] = r.Size
		order = append(order, storedPath{path: abs, key: key})
	}
	return order, entries, nil
}

// restrict applies owner-only permissions, logging instead of failing.
func restrict(path string, dir bool) {
	if err := fsutil.RestrictToOwner(path, dir); err != nil {
		logger.Warn("could not restrict permissions", "path", path, "err", err)
	}
}
