package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
)

// Metadata is the integrity record paired with a snapshot file.
type Metadata struct {
	// Hash is the hex SHA-256 over the snapshot bytes and its timestamps.
	Hash string `json:"hash" yaml:"hash"`

	// Timestamp is the capture time as YYYYMMDD_HHmmss.
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	// FileSize is the snapshot file's size in bytes. -1 when absent.
	FileSize int64 `json:"file_size" yaml:"file_size"`

	// FileCount is the number of entries written. -1 when absent.
	FileCount int `json:"file_count" yaml:"file_count"`

	// Snapshot is the snapshot file name. It is not persisted.
	Snapshot string `json:"snapshot" yaml:"snapshot"`
}

// Metadata file keys.
const (
	keyHash      = "HASH"
	keyTimestamp = "TIMESTAMP"
	keyFileSize  = "FILE_SIZE"
	keyFileCount = "FILE_COUNT"
)

// Encode renders the metadata as KEY:value lines.
func (m *Metadata) Encode() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s\n", keyHash, m.Hash)
	fmt.Fprintf(&b, "%s:%s\n", keyTimestamp, m.Timestamp)
	fmt.Fprintf(&b, "%s:%d\n", keyFileSize, m.FileSize)
	fmt.Fprintf(&b, "%s:%d\n", keyFileCount, m.FileCount)
	return []byte(b.String())
}

// CapturedAt parses Timestamp in the local time zone.
func (m *Metadata) CapturedAt() (time.Time, error) {
	return time.ParseInLocation(timestampLayout, m.Timestamp, time.Local)
}

// ParseMetadata reads KEY:value lines. Unknown keys are ignored. Numeric
// fields that are absent are reported as -1.
func ParseMetadata(data []byte) (*Metadata, error) {
	m := &Metadata{FileSize: -1, FileCount: -1}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case keyHash:
			m.Hash = strings.ToLower(value)
		case keyTimestamp:
			m.Timestamp = value
		case keyFileSize:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", keyFileSize, value, err)
			}
			m.FileSize = n
		case keyFileCount:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", keyFileCount, value, err)
			}
			m.FileCount = n
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Digest returns the integrity hash of the file at path together with the
// bytes and size it was computed from.
func Digest(path string) (digest string, data []byte, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	return digestOf(data, fsutil.BirthTime(path, info), info.ModTime()), data, nil
}

// digestOf hashes content followed by "<btime>|<mtime>" in RFC 3339 UTC.
func digestOf(data []byte, btime, mtime time.Time) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte(btime.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte("|"))
	h.Write([]byte(mtime.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}
