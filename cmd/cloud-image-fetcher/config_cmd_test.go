package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/virtstack/cloud-image-fetcher/internal/config"
)

func TestConfigInitCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	root := createRootCommand()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs([]string{"config", "init", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	loaded, err := config.LoadGlobalConfig(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	defaults := config.DefaultGlobalConfig()
	if loaded.Workers != defaults.Workers || loaded.OutputDir != defaults.OutputDir {
		t.Errorf("generated config differs from defaults: %+v", loaded)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "#") {
		t.Error("generated config should carry explanatory comments")
	}
}

func TestConfigInitRefusesUnwritablePath(t *testing.T) {
	root := createRootCommand()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs([]string{"config", "init", string([]byte{0})})

	if err := root.Execute(); err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestConfigShowRuns(t *testing.T) {
	root := createRootCommand()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs([]string{"config", "show"})

	if err := root.Execute(); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
}
