package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/filter"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/probecache"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var logger = logging.Get("scanner")

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Scanner performs parallel directory enumeration using fastwalk.
type Scanner struct {
	opts       Options
	exclude    *filter.Matcher
	extensions map[string]struct{}

	dirsScanned  atomic.Int64
	filesScanned atomic.Int64
	imagesFound  atomic.Int64
	bytesScanned atomic.Int64
	emptyFiles   atomic.Int64

	currentPath  atomic.Value
	lastProgress atomic.Int64

	mu         sync.Mutex
	results    []types.FileRecord
	errors     []types.ScanError
	histogram  map[string]int64
	probedKeys map[string]struct{}

	root string
}

// New creates a Scanner. Invalid exclusion patterns are reported by Scan.
func New(opts Options) *Scanner {
	s := &Scanner{
		opts:       opts,
		histogram:  make(map[string]int64),
		probedKeys: make(map[string]struct{}),
	}
	s.currentPath.Store("")
	return s
}

// Scan walks the root and returns the supported files sorted by path.
// Per-path errors are collected in the result; cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	startTime := time.Now()

	if err := s.opts.Validate(); err != nil {
		return nil, err
	}
	exclude, err := filter.NewMatcher(s.opts.Exclude...)
	if err != nil {
		return nil, err
	}
	s.exclude = exclude
	s.extensions = make(map[string]struct{})
	for _, ext := range filter.NormalizeExtensions(s.opts.Extensions) {
		s.extensions[ext] = struct{}{}
	}

	root, err := validateRoot(s.opts.Root)
	if err != nil {
		return nil, err
	}
	s.root = root

	logger.Debug("scan started", "root", root, "probe", s.opts.ProbeContent)
	s.currentPath.Store(root)
	s.reportProgressForce()

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, s.walkCallback(ctx))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	s.syncCache()

	slices.SortFunc(s.results, func(a, b types.FileRecord) int {
		return strings.Compare(a.Path, b.Path)
	})

	s.reportProgressForce()

	result := &types.ScanResult{
		Root:         root,
		Files:        s.results,
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		TotalSize:    s.bytesScanned.Load(),
		EmptyFiles:   s.emptyFiles.Load(),
		Extensions:   s.histogram,
		Elapsed:      time.Since(startTime),
		Errors:       s.errors,
	}
	if s.opts.Cache != nil {
		result.CacheHits, result.CacheMisses = s.opts.Cache.Stats()
	}
	if result.Files == nil {
		result.Files = []types.FileRecord{}
	}

	logger.Info("scan finished",
		"root", root,
		"images", len(result.Files),
		"files", result.FilesScanned,
		"errors", len(result.Errors),
		"elapsed", result.Elapsed.Round(time.Millisecond))

	return result, nil
}

// validateRoot resolves the root to an absolute directory path.
func validateRoot(root string) (string, error) {
	abs, err := fsutil.AbsPath(root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	return abs, nil
}

func (s *Scanner) walkCallback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}

		if err != nil {
			s.addError(path, err)
			return nil
		}

		if path != s.root && s.exclude.Match(path) {
			logger.Debug("excluded", "path", path)
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			s.dirsScanned.Add(1)
			s.currentPath.Store(path)
			s.reportProgress()
			return nil
		}

		if d.Type().IsRegular() {
			s.processFile(path, d)
		}
		return nil
	}
}

func (s *Scanner) processFile(path string, d fs.DirEntry) {
	info, err := d.Info()
	if err != nil {
		s.addError(path, err)
		return
	}

	size := info.Size()
	ext := strings.ToLower(filepath.Ext(path))

	s.filesScanned.Add(1)
	s.bytesScanned.Add(size)
	if size == 0 {
		s.emptyFiles.Add(1)
	}

	s.mu.Lock()
	s.histogram[ext]++
	s.mu.Unlock()

	if _, ok := s.extensions[ext]; !ok {
		return
	}

	var mime string
	if s.opts.ProbeContent {
		var isImage bool
		mime, isImage, err = s.probe(path, info)
		if err != nil {
			s.addError(path, err)
			return
		}
		if !isImage {
			logger.Debug("content is not an image", "path", path, "mime", mime)
			return
		}
	}

	rec := types.FileRecord{
		Path:       filepath.Clean(path),
		Size:       size,
		ModTime:    info.ModTime(),
		CreateTime: fsutil.BirthTime(path, info),
		Mode:       info.Mode(),
		Ext:        ext,
		MIME:       mime,
	}

	s.imagesFound.Add(1)
	s.mu.Lock()
	s.results = append(s.results, rec)
	s.mu.Unlock()
}

// probe sniffs the file, consulting the cache first.
func (s *Scanner) probe(path string, info os.FileInfo) (string, bool, error) {
	cache := s.opts.Cache
	rel := s.relPath(path)

	if cache != nil {
		s.mu.Lock()
		s.probedKeys[rel] = struct{}{}
		s.mu.Unlock()

		if entry, ok := cache.Lookup(s.root, rel, info); ok {
			return entry.MIME, entry.Image, nil
		}
	}

	mime, err := Sniff(path)
	if err != nil {
		return "", false, err
	}
	isImage := IsImageType(mime)

	if cache != nil {
		cache.Remember(s.root, rel, probecache.NewEntry(info, mime, isImage))
	}
	return mime, isImage, nil
}

// syncCache flushes new probe results and drops entries for files that
// were not seen.
func (s *Scanner) syncCache() {
	if s.opts.Cache == nil {
		return
	}

	if err := s.opts.Cache.Flush(); err != nil {
		logger.Warn("probe cache flush failed", "err", err)
		return
	}

	removed, err := s.opts.Cache.Prune(s.root, s.probedKeys)
	if err != nil {
		logger.Warn("probe cache prune failed", "err", err)
		return
	}
	if removed > 0 {
		logger.Debug("pruned probe cache", "root", s.root, "removed", removed)
	}
}

func (s *Scanner) relPath(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (s *Scanner) addError(path string, err error) {
	logger.Warn("scan error", "path", path, "err", err)

	s.mu.Lock()
	s.errors = append(s.errors, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
	s.mu.Unlock()
}

// reportProgress calls the progress callback at most every 10ms.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return
	}
	s.sendProgress()
}

func (s *Scanner) reportProgressForce() {
	if s.opts.OnProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixMilli())
	s.sendProgress()
}

func (s *Scanner) sendProgress() {
	currentPath, _ := s.currentPath.Load().(string)

	s.opts.OnProgress(types.ScanProgress{
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		ImagesFound:  s.imagesFound.Load(),
		CurrentPath:  currentPath,
		BytesScanned: s.bytesScanned.Load(),
	})
}
