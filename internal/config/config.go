package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/security"
)

// GlobalConfig holds tool-level settings that apply across all fetches.
type GlobalConfig struct {
	Workers   int    `yaml:"workers" json:"workers"`       // Concurrent download pipelines (1-64, default: 4)
	OutputDir string `yaml:"output_dir" json:"output_dir"` // Default destination directory for fetched images (default: .)
	IndexFile string `yaml:"index_file" json:"index_file"` // Source index override; empty uses the embedded index
	Progress  bool   `yaml:"progress" json:"progress"`     // Render download progress bars (default: true)

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig controls basic logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`                   // debug, info (default), warn, error
	File  string `yaml:"file,omitempty" json:"file,omitempty"` // Optional log file path for teeing output to disk
}

var (
	globalInstance *GlobalConfig
	globalMutex    sync.RWMutex
	once           sync.Once
)

// SetGlobal sets the global config instance (call once at startup).
func SetGlobal(config *GlobalConfig) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalInstance = config
}

// Global returns the global config instance.
func Global() *GlobalConfig {
	once.Do(func() {
		globalMutex.Lock()
		defer globalMutex.Unlock()
		if globalInstance == nil {
			globalInstance = DefaultGlobalConfig()
		}
	})

	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalInstance
}

// DefaultGlobalConfig returns a GlobalConfig with sensible defaults.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Workers:   4,
		OutputDir: ".",
		Progress:  true,

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Workers returns the configured download concurrency.
func Workers() int { return Global().Workers }

// OutputDir returns the default destination directory.
func OutputDir() string { return Global().OutputDir }

// FindConfigFile looks for a config file in the conventional locations and
// returns the first hit, or "" when none exists.
func FindConfigFile() string {
	candidates := []string{"./cloud-image-fetcher.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "cloud-image-fetcher", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadGlobalConfig loads configuration from the specified path, falling
// back to defaults when the file is absent.
func LoadGlobalConfig(configPath string) (*GlobalConfig, error) {
	log := logger.Logger()
	config := DefaultGlobalConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		if errors.Is(err, os.ErrPermission) {
			log.Warnf("Config file %s is not accessible (%v); using defaults", configPath, err)
			return config, nil
		}
		return nil, fmt.Errorf("accessing config file %s: %w", configPath, err)
	}

	data, err := security.SafeReadFile(configPath, security.RejectSymlinks)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml)", ext)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for out-of-range values.
func (gc *GlobalConfig) Validate() error {
	if gc.Workers < 1 || gc.Workers > 64 {
		return fmt.Errorf("workers must be between 1 and 64, got %d", gc.Workers)
	}
	switch strings.ToLower(gc.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return fmt.Errorf("invalid log level: %q", gc.Logging.Level)
	}
	if gc.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}

// SaveGlobalConfig writes the configuration to configPath as YAML with
// explanatory comments. Used by the config init command.
func (gc *GlobalConfig) SaveGlobalConfig(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is empty")
	}
	if err := gc.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	var b strings.Builder
	b.WriteString("# cloud-image-fetcher - global configuration\n\n")
	fmt.Fprintf(&b, "workers: %d\n", gc.Workers)
	b.WriteString("# Concurrent download pipelines (1-64)\n\n")
	fmt.Fprintf(&b, "output_dir: %q\n", gc.OutputDir)
	b.WriteString("# Default destination directory for fetched images\n\n")
	fmt.Fprintf(&b, "index_file: %q\n", gc.IndexFile)
	b.WriteString("# Source index override; empty uses the embedded index\n\n")
	fmt.Fprintf(&b, "progress: %t\n", gc.Progress)
	b.WriteString("# Render download progress bars\n\n")
	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", gc.Logging.Level)
	b.WriteString("  # debug, info, warn, error\n")
	if gc.Logging.File != "" {
		fmt.Fprintf(&b, "  file: %q\n", gc.Logging.File)
	}

	if err := os.WriteFile(configPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
