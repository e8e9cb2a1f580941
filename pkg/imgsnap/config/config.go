package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const appName = "imgsnap"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// StoreConfig locates the snapshot store.
type StoreConfig struct {
	Dir         string `mapstructure:"dir"`
	MetadataDir string `mapstructure:"metadata_dir"`
	// Identity is "name" (directory base name) or "path" (base name plus
	// a hash of the absolute path).
	Identity string `mapstructure:"identity"`
}

// ScanConfig controls enumeration.
type ScanConfig struct {
	Extensions   []string `mapstructure:"extensions"`
	Exclude      []string `mapstructure:"exclude"`
	ProbeContent bool     `mapstructure:"probe_content"`
}

// Config is the complete application configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Scan  ScanConfig  `mapstructure:"scan"`
	Cache struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	Journal struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"journal"`
	Output struct {
		Format string `mapstructure:"format"`
	} `mapstructure:"output"`
	Watch struct {
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"watch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.dir", DefaultSnapshotDir)
	v.SetDefault("store.metadata_dir", DefaultMetadataDir)
	v.SetDefault("store.identity", DefaultIdentity)

	v.SetDefault("scan.extensions", DefaultExtensions)
	v.SetDefault("scan.exclude", []string{})
	v.SetDefault("scan.probe_content", true)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", DefaultJournalPath())
	v.SetDefault("journal.retention_days", DefaultRetentionDays)

	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("watch.debounce", DefaultWatchDebounce)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MiB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"scanner":  "info",
		"snapshot": "info",
		"watcher":  "warn",
	})
}

// Configure points v at the standard config locations and environment.
// An explicit file, when non-empty, replaces the search paths.
func Configure(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, appName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	v.SetEnvPrefix("IMGSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load reads configuration from the default locations and the environment.
func Load() (*Config, error) {
	return LoadFrom(viper.New(), "")
}

// LoadFrom configures v, reads the config file if one exists and decodes
// the result. A missing config file is not an error.
func LoadFrom(v *viper.Viper, file string) (*Config, error) {
	Configure(v, file)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return Decode(v)
}

// Decode unmarshals the current state of v and expands ~ in path settings.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.Store.Dir, &cfg.Store.MetadataDir, &cfg.Cache.Path, &cfg.Journal.Path, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	return &cfg, nil
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a commented default config file unless one exists.
// It returns the config path either way.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(defaultTemplate,
		DefaultSnapshotDir, DefaultMetadataDir, DefaultIdentity,
		strings.Join(DefaultExtensions, ", "),
		DefaultCachePath(),
		DefaultJournalPath(), DefaultRetentionDays,
		DefaultOutputFormat, DefaultWatchDebounce,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

const defaultTemplate = `# imgsnap configuration

# Snapshot store. Relative paths resolve against the working directory.
store:
  dir: %s
  metadata_dir: %s
  # name: key snapshots by directory base name
  # path: base name plus a hash of the absolute path (no collisions)
  identity: %s

# Enumeration
scan:
  extensions: [%s]
  exclude: []
  # Sniff file headers and drop files that are not really images
  probe_content: true

# Content-probe cache
cache:
  enabled: true
  path: %s

# Operation history
journal:
  enabled: true
  path: %s
  retention_days: %d

output:
  # pretty, plain, json, yaml, paths, patch
  format: %s

watch:
  debounce: %s

logging:
  # debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/imgsnap/imgsnap.log
  path: ""
  rotation:
    max_size: 10MiB
    max_age: 30
    max_backups: 5
    daily: true
  components:
    scanner: info
    snapshot: info
    watcher: warn
`

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/imgsnap.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// CacheDir returns $XDG_CACHE_HOME/imgsnap.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// DefaultCachePath is the badger directory of the content-probe cache.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "probe")
}

// DefaultJournalPath is the directory of operation history entries.
func DefaultJournalPath() string {
	return filepath.Join(DataDir(), "journal")
}
