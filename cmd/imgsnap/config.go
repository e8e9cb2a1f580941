package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage imgsnap configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/imgsnap/config.yaml (if set)
  2. ~/.config/imgsnap/config.yaml

Environment variables can override config file settings using the IMGSNAP_ prefix:
  IMGSNAP_STORE_DIR=/var/lib/imgsnap/snapshots
  IMGSNAP_STORE_IDENTITY=path
  IMGSNAP_SCAN_PROBE_CONTENT=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("store.dir:              %s\n", cfg.Store.Dir)
	fmt.Printf("store.metadata_dir:     %s\n", cfg.Store.MetadataDir)
	fmt.Printf("store.identity:         %s\n", cfg.Store.Identity)
	fmt.Printf("scan.extensions:        %v\n", cfg.Scan.Extensions)
	fmt.Printf("scan.exclude:           %v\n", cfg.Scan.Exclude)
	fmt.Printf("scan.probe_content:     %t\n", cfg.Scan.ProbeContent)
	fmt.Printf("cache.enabled:          %t\n", cfg.Cache.Enabled)
	fmt.Printf("cache.path:             %s\n", cfg.Cache.Path)
	fmt.Printf("journal.enabled:        %t\n", cfg.Journal.Enabled)
	fmt.Printf("journal.path:           %s\n", cfg.Journal.Path)
	fmt.Printf("journal.retention:      %d days\n", cfg.Journal.RetentionDays)
	fmt.Printf("output.format:          %s\n", cfg.Output.Format)
	fmt.Printf("watch.debounce:         %s\n", cfg.Watch.Debounce)
	fmt.Printf("logging.level:          %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:           %s\n", logPathOrDefault(cfg.Logging.Path))

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	overrides := environmentOverrides(os.Environ())
	if len(overrides) == 0 {
		fmt.Println("(none)")
	}
	for _, kv := range overrides {
		fmt.Println(kv)
	}

	return nil
}

// environmentOverrides returns the IMGSNAP_ variables of env, sorted.
func environmentOverrides(env []string) []string {
	var overrides []string
	for _, kv := range env {
		name, val, ok := strings.Cut(kv, "=")
		if ok && val != "" && strings.HasPrefix(name, "IMGSNAP_") {
			overrides = append(overrides, kv)
		}
	}
	sort.Strings(overrides)
	return overrides
}

func logPathOrDefault(path string) string {
	if path == "" {
		return "(default) $XDG_STATE_HOME/imgsnap/imgsnap.log"
	}
	return path
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'imgsnap config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
