package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
)

// Identity selects how a target directory maps to a snapshot key.
type Identity string

const (
	// IdentityName keys by the directory's base name. Different directories
	// sharing a base name share one snapshot slot.
	IdentityName Identity = "name"

	// IdentityPath keys by base name plus a short hash of the absolute path.
	IdentityPath Identity = "path"
)

const unknownKey = "unknown"

// ParseIdentity parses "name" or "path". Empty means IdentityName.
func ParseIdentity(s string) (Identity, error) {
	switch Identity(strings.ToLower(strings.TrimSpace(s))) {
	case "", IdentityName:
		return IdentityName, nil
	case IdentityPath:
		return IdentityPath, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
}

// Key returns the snapshot key for a target directory.
func (id Identity) Key(target string) (string, error) {
	abs, err := fsutil.NormalizePath(target)
	if err != nil {
		return "", fmt.Errorf("resolve target %q: %w", target, err)
	}

	base := sanitizeKey(filepath.Base(abs))

	switch id {
	case IdentityPath:
		return base + "-" + fsutil.PathKey(abs), nil
	case IdentityName, "":
		return base, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, string(id))
	}
}

// sanitizeKey keeps keys usable as file name prefixes.
func sanitizeKey(base string) string {
	base = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "_").Replace(base)
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == ".." || strings.Trim(base, "_") == "" {
		return unknownKey
	}
	return base
}
