// Package journal records the history of snapshot operations.
package journal

import (
	"time"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/diff"
)

// Operation is the kind of recorded operation.
type Operation string

const (
	OpSave    Operation = "save"
	OpCompare Operation = "compare"
	OpVerify  Operation = "verify"
)

// Outcome summarizes how an operation ended.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeChanged    Outcome = "changed"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomeNoBaseline Outcome = "no_baseline"
	OutcomeTampered   Outcome = "tampered"
	OutcomeFailed     Outcome = "failed"
)

// Entry is one journal record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Outcome   Outcome   `json:"outcome"`

	Target   string `json:"target"`
	Source   string `json:"source,omitempty"`
	Snapshot string `json:"snapshot,omitempty"`
	Hash     string `json:"hash,omitempty"`

	Summary Summary `json:"summary"`
	Error   string  `json:"error,omitempty"`
}

// Summary holds the counts of an operation.
type Summary struct {
	Files     int64 `json:"files"`
	Bytes     int64 `json:"bytes"`
	New       int   `json:"new,omitempty"`
	Modified  int   `json:"modified,omitempty"`
	Deleted   int   `json:"deleted,omitempty"`
	Renamed   int   `json:"renamed,omitempty"`
	Unchanged int   `json:"unchanged,omitempty"`
}

// SummarizeDiff fills the change counts of a comparison.
func SummarizeDiff(r *diff.Result) Summary {
	if r == nil {
		return Summary{}
	}
	return Summary{
		New:       len(r.New),
		Modified:  len(r.Modified),
		Deleted:   len(r.Deleted),
		Renamed:   len(r.Renamed),
		Unchanged: r.Unchanged,
	}
}
