package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/virtstack/cloud-image-fetcher/internal/config"
	"github.com/virtstack/cloud-image-fetcher/internal/distro"
	"github.com/virtstack/cloud-image-fetcher/internal/distro/almalinux"
	"github.com/virtstack/cloud-image-fetcher/internal/distro/debian"
	"github.com/virtstack/cloud-image-fetcher/internal/distro/ubuntu"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/security"
)

// Command-line flags that can override config file settings
var (
	configFile string = "" // Path to config file
	logLevel   string = "" // Empty means use config file value
	indexFile  string = "" // Source index override
)

func main() {
	configFilePath := configFile
	if configFilePath == "" {
		configFilePath = config.FindConfigFile()
	}

	globalConfig, err := config.LoadGlobalConfig(configFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(globalConfig)

	cleanup, err := initLogging(globalConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	registerDistros()

	rootCmd := createRootCommand()
	security.AttachRecursive(rootCmd, security.DefaultLimits())

	log := logger.Logger()
	if configFilePath != "" {
		log.Infof("Using configuration from: %s", configFilePath)
	}
	log.Debugf("Config: workers=%d, output_dir=%s", config.Workers(), config.OutputDir())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogging sets up the global logger from the loaded configuration,
// including the optional file tee.
func initLogging(cfg *config.GlobalConfig) (func(), error) {
	_, cleanup, err := logger.InitWithConfig(logger.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.File,
	})
	return cleanup, err
}

// applyFlagOverrides folds --log-level and --index into the global config
// once flags are parsed. Installed as the root PersistentPreRunE;
// EnableTraverseRunHooks keeps it firing when a subcommand runs.
func applyFlagOverrides(cmd *cobra.Command, args []string) error {
	cfg := config.Global()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		config.SetGlobal(cfg)
		logger.SetLogLevel(logLevel)
	}
	if indexFile != "" {
		cfg.IndexFile = indexFile
		config.SetGlobal(cfg)
	}
	return nil
}

// registerDistros makes every supported distribution's filename grammar
// available before the source index is loaded.
func registerDistros() {
	debian.Register()
	ubuntu.Register()
	almalinux.Register()
}

// loadSources binds the source index (file override or embedded default)
// to the registered distributions. Called by commands that resolve images.
func loadSources() error {
	return distro.LoadIndexFile(config.Global().IndexFile)
}

// createRootCommand creates and configures the root cobra command with all subcommands
func createRootCommand() *cobra.Command {
	// Run every parent's PersistentPreRunE, not just the invoked command's,
	// so the root override hook executes for subcommands.
	cobra.EnableTraverseRunHooks = true

	rootCmd := &cobra.Command{
		Use:   "cloud-image-fetcher",
		Short: "Fetch and verify cloud VM disk images",
		Long: `cloud-image-fetcher resolves cloud virtual-machine disk images against a
distribution's published checksum manifest, downloads them, and verifies
every byte against the published digest before the file is written.

Supported distributions: Debian, Ubuntu, AlmaLinux (extensible via a
source index file).

Use 'cloud-image-fetcher --help' to see available commands.
Use 'cloud-image-fetcher <command> --help' for more information about a command.`,
		PersistentPreRunE: applyFlagOverrides,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&indexFile, "index", "",
		"Path to a source index file (default: embedded index)")

	rootCmd.AddCommand(createFetchCommand())
	rootCmd.AddCommand(createListCommand())
	rootCmd.AddCommand(createPickCommand())
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())

	return rootCmd
}
