// Package config loads imgsnap configuration from YAML files and IMGSNAP_
// environment variables via viper.
package config

import "time"

// Default configuration values.
const (
	// DefaultSnapshotDir holds snapshot files, relative to the working directory.
	DefaultSnapshotDir = "snapshots"

	// DefaultMetadataDir holds the integrity metadata paired with each snapshot.
	DefaultMetadataDir = "snapshot_metadata"

	// DefaultIdentity keys snapshots by the target directory's base name.
	DefaultIdentity = "name"

	DefaultOutputFormat = "pretty"

	DefaultRetentionDays = 30

	DefaultWatchDebounce = 2 * time.Second
)

// DefaultExtensions are the image types enumerated when none are configured.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "webp", "gif", "bmp"}
