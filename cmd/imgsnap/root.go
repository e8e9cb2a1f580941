package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/config"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "imgsnap",
		Short: "Snapshot image directories and detect changes",
		Long: `imgsnap records which images a directory holds and how large they are,
protects each record with an integrity digest, and reports what changed
since the last snapshot.

Examples:
  imgsnap save ~/Pictures            # Record a baseline
  imgsnap compare ~/Pictures         # Show new, modified, deleted and renamed images
  imgsnap compare -o patch ~/Pictures
  imgsnap verify ~/Pictures          # Check the stored snapshot was not tampered with
  imgsnap search ~/Pictures name=*.png date=2021
  imgsnap watch ~/Pictures           # Re-compare whenever the directory changes`,
		SilenceUsage:      true,
		PersistentPreRunE: initializeLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/imgsnap/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: pretty, plain, json, yaml, paths, patch")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the content-probe cache")
	rootCmd.PersistentFlags().Bool("no-probe", false, "trust extensions, skip header sniffing")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	bindPersistentFlags()
}

// bindPersistentFlags binds the persistent flags to the global viper.
func bindPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("output.format", flags.Lookup("output"))
	_ = viper.BindPFlag("exclude", flags.Lookup("exclude"))
	_ = viper.BindPFlag("no_cache", flags.Lookup("no-cache"))
	_ = viper.BindPFlag("no_probe", flags.Lookup("no-probe"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	config.Configure(viper.GetViper(), cfgFile)

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			printError("Failed to read config file: %v", err)
		}
	}
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
