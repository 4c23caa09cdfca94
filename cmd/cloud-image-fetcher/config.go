package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtstack/cloud-image-fetcher/internal/config"
)

// createConfigCommand creates the config subcommand
func createConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage global configuration for cloud-image-fetcher.

Available commands:
  init    Initialize a new configuration file with default values
  show    Print the effective configuration`,
	}

	configCmd.AddCommand(createConfigInitCommand())
	configCmd.AddCommand(createConfigShowCommand())

	return configCmd
}

// createConfigInitCommand creates the config init subcommand
func createConfigInitCommand() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init [config-file]",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new configuration file with default values.

If no path is specified, the config will be created in the current
directory as cloud-image-fetcher.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: executeConfigInit,
	}

	return initCmd
}

// executeConfigInit handles the config init command logic
func executeConfigInit(cmd *cobra.Command, args []string) error {
	configPath := "cloud-image-fetcher.yaml"
	if len(args) > 0 {
		configPath = args[0]
	}

	defaultConfig := config.DefaultGlobalConfig()
	if err := defaultConfig.SaveGlobalConfig(configPath); err != nil {
		return fmt.Errorf("failed to save config file: %v", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	return nil
}

// createConfigShowCommand creates the config show subcommand
func createConfigShowCommand() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Run:   executeConfigShow,
	}

	return showCmd
}

// executeConfigShow handles the config show command logic
func executeConfigShow(cmd *cobra.Command, args []string) {
	gc := config.Global()
	fmt.Printf("workers:    %d\n", gc.Workers)
	fmt.Printf("output_dir: %s\n", gc.OutputDir)
	fmt.Printf("index_file: %s\n", gc.IndexFile)
	fmt.Printf("progress:   %t\n", gc.Progress)
	fmt.Printf("log level:  %s\n", gc.Logging.Level)
	if gc.Logging.File != "" {
		fmt.Printf("log file:   %s\n", gc.Logging.File)
	}
}
