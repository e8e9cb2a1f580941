package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBaseline is returned when no snapshot exists for a target. It is
	// the expected outcome of a first run, not a failure.
	ErrNoBaseline = errors.New("no baseline snapshot")

	// ErrIntegrity marks a snapshot that failed verification.
	ErrIntegrity = errors.New("snapshot integrity violation")

	// ErrInvalidIdentity indicates an unknown identity mode.
	ErrInvalidIdentity = errors.New("invalid identity mode")
)

// IntegrityError describes why a snapshot failed verification.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrIntegrity, e.Path, e.Reason)
}

// Unwrap lets errors.Is(err, ErrIntegrity) match.
func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}
