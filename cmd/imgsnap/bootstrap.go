package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/config"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

// appConfig is the decoded configuration of the current invocation.
var appConfig *config.Config

// initializeLogging decodes the configuration, makes sure the XDG
// directories exist and starts the log file. It runs before every command.
func initializeLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}
	appConfig = cfg

	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Rotation:     parseRotationConfig(cfg.Logging.Rotation),
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel(getVerbose(), getQuiet()),
	})
}

// parseRotationConfig converts the configured rotation settings. An empty
// or unparsable max_size falls back to the logging default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
	if rc.MaxSize != "" {
		if size, err := types.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}
	return out
}

// consoleLevel picks the stderr mirror level from the verbosity flags.
func consoleLevel(verbose, quiet bool) string {
	switch {
	case quiet:
		return "error"
	case verbose:
		return "debug"
	default:
		return "warn"
	}
}
