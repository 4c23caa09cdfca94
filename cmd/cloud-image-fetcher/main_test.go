package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/virtstack/cloud-image-fetcher/internal/config"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/security"
)

// TestMain_CreateRootCommand validates that the root command is properly
// configured with all expected flags and subcommands.
func TestMain_CreateRootCommand(t *testing.T) {
	root := createRootCommand()

	if root == nil {
		t.Fatal("createRootCommand returned nil")
	}

	if root.Use != "cloud-image-fetcher" {
		t.Errorf("expected Use to be 'cloud-image-fetcher', got %q", root.Use)
	}
	if root.Short == "" {
		t.Error("Short description should not be empty")
	}
	if root.Long == "" {
		t.Error("Long description should not be empty")
	}

	for _, name := range []string{"config", "log-level", "index"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s to be registered", name)
		}
	}

	expectedCommands := map[string]bool{
		"fetch":   false,
		"list":    false,
		"pick":    false,
		"version": false,
		"config":  false,
	}
	for _, cmd := range root.Commands() {
		if _, exists := expectedCommands[cmd.Name()]; exists {
			expectedCommands[cmd.Name()] = true
		}
	}
	for name, found := range expectedCommands {
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

// TestMain_RootCommandHelp validates that help text is properly formatted
// and contains expected information.
func TestMain_RootCommandHelp(t *testing.T) {
	root := createRootCommand()

	var helpOutput strings.Builder
	root.SetOut(&helpOutput)
	root.SetErr(&helpOutput)
	root.SetArgs([]string{"--help"})

	if err := root.Execute(); err != nil {
		t.Fatalf("failed to execute help: %v", err)
	}

	help := helpOutput.String()
	expectedInHelp := []string{
		"cloud-image-fetcher",
		"checksum manifest",
		"--config",
		"--log-level",
		"--index",
		"Available Commands:",
		"fetch",
		"list",
		"pick",
		"version",
		"config",
	}
	for _, expected := range expectedInHelp {
		if !strings.Contains(help, expected) {
			t.Errorf("help output missing expected text %q", expected)
		}
	}
}

// TestMain_GlobalFlagInheritance validates that global flags are inherited
// by all subcommands.
func TestMain_GlobalFlagInheritance(t *testing.T) {
	root := createRootCommand()

	globalFlags := []string{"config", "log-level", "index"}
	for _, cmd := range root.Commands() {
		t.Run(cmd.Name(), func(t *testing.T) {
			for _, flagName := range globalFlags {
				if cmd.InheritedFlags().Lookup(flagName) == nil {
					t.Errorf("subcommand %q should inherit flag --%s", cmd.Name(), flagName)
				}
			}
		})
	}
}

// TestMain_FetchCommandFlags validates the fetch command's flag surface.
func TestMain_FetchCommandFlags(t *testing.T) {
	root := createRootCommand()
	cmd, _, err := root.Find([]string{"fetch"})
	if err != nil {
		t.Fatalf("failed to find fetch command: %v", err)
	}

	flags := []struct {
		name      string
		shorthand string
	}{
		{"arch", "a"},
		{"variant", ""},
		{"format", "f"},
		{"output", "o"},
		{"output-file", ""},
		{"workers", "w"},
		{"no-progress", ""},
		{"decompress", ""},
	}
	for _, want := range flags {
		f := cmd.Flags().Lookup(want.name)
		if f == nil {
			t.Errorf("fetch should define flag --%s", want.name)
			continue
		}
		if want.shorthand != "" && f.Shorthand != want.shorthand {
			t.Errorf("flag --%s: expected shorthand %q, got %q", want.name, want.shorthand, f.Shorthand)
		}
	}

	if got := cmd.Flags().Lookup("arch").DefValue; got != "amd64" {
		t.Errorf("--arch default = %q, want amd64", got)
	}
}

// TestMain_FetchRequiresTwoArgs validates positional argument handling.
func TestMain_FetchRequiresTwoArgs(t *testing.T) {
	for _, args := range [][]string{
		{"fetch"},
		{"fetch", "debian"},
		{"fetch", "debian", "bookworm", "extra"},
	} {
		root := createRootCommand()
		root.SetOut(&strings.Builder{})
		root.SetErr(&strings.Builder{})
		root.SetArgs(args)
		if err := root.Execute(); err == nil {
			t.Errorf("args %v: expected argument count error", args)
		}
	}
}

// TestMain_FlagOverridesReachSubcommands validates that --log-level and
// --index take effect when a subcommand is executed with the same wiring
// main() uses.
func TestMain_FlagOverridesReachSubcommands(t *testing.T) {
	origLogLevel, origIndexFile := logLevel, indexFile
	defer func() {
		logLevel, indexFile = origLogLevel, origIndexFile
	}()
	config.SetGlobal(config.DefaultGlobalConfig())

	root := createRootCommand()
	security.AttachRecursive(root, security.DefaultLimits())
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs([]string{"version", "--log-level", "debug", "--index", "/etc/cloud-image-fetcher/sources.yaml"})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := config.Global()
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug: --log-level override did not reach the subcommand", cfg.Logging.Level)
	}
	if cfg.IndexFile != "/etc/cloud-image-fetcher/sources.yaml" {
		t.Errorf("index file = %q: --index override did not reach the subcommand", cfg.IndexFile)
	}
}

// TestMain_InitLoggingFileTee validates that the logging.file config field
// reaches the logger's file sink.
func TestMain_InitLoggingFileTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fetch.log")
	cfg := config.DefaultGlobalConfig()
	cfg.Logging.File = path

	cleanup, err := initLogging(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Logger().Infof("tee check %d", 7)
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "tee check 7") {
		t.Error("log file does not contain the emitted entry")
	}
}

// TestMain_ProgressEnabled validates the progress-bar decision: the config
// field, the --no-progress flag and the job count all gate it.
func TestMain_ProgressEnabled(t *testing.T) {
	origNoProgress := fetchNoProgress
	defer func() {
		fetchNoProgress = origNoProgress
		config.SetGlobal(config.DefaultGlobalConfig())
	}()

	config.SetGlobal(config.DefaultGlobalConfig())
	fetchNoProgress = false

	if !progressEnabled(1) {
		t.Error("expected progress for a single job with defaults")
	}
	if progressEnabled(2) {
		t.Error("progress must stay off for concurrent jobs")
	}

	fetchNoProgress = true
	if progressEnabled(1) {
		t.Error("--no-progress must suppress the bar")
	}

	fetchNoProgress = false
	cfg := config.DefaultGlobalConfig()
	cfg.Progress = false
	config.SetGlobal(cfg)
	if progressEnabled(1) {
		t.Error("progress disabled in config must suppress the bar")
	}
}

func TestRegisterDistros(t *testing.T) {
	registerDistros()

	root := createRootCommand()
	if root == nil {
		t.Fatal("root command missing")
	}
	// Registration is idempotent; a second call must not panic.
	registerDistros()
}
