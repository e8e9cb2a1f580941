package snapshot

import (
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/diff"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// Compare loads the newest snapshot for target and classifies records
// against it. ErrNoBaseline, integrity failures and I/O errors are returned
// unchanged; no partial result is produced.
func (s *Store) Compare(target string, records []types.FileRecord) (*diff.Result, error) {
	snap, err := s.LoadLatest(target)
	if err != nil {
		return nil, err
	}
	return CompareSnapshot(snap, records)
}

// CompareSnapshot classifies records against an already loaded snapshot.
func CompareSnapshot(snap *Snapshot, records []types.FileRecord) (*diff.Result, error) {
	_, current, err := normalizeRecords(records)
	if err != nil {
		return nil, err
	}

	result := diff.Compare(snap.Entries, current)

	logger.Info("snapshot compared",
		"target", snap.Target,
		"new", len(result.New),
		"modified", len(result.Modified),
		"deleted", len(result.Deleted),
		"renamed", len(result.Renamed),
		"unchanged", result.Unchanged)

	return result, nil
}

// Current returns the normalized path→size mapping of records, as Save and
// Compare see it.
func Current(records []types.FileRecord) (map[string]int64, error) {
	_, current, err := normalizeRecords(records)
	return current, err
}
