//go:build !unix

package logging

import "os"

// Advisory locking is unix-only; appends are still serialized in-process.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
