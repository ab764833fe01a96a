package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Host != "127.0.0.1" {
		t.Errorf("expected default host %q, got %q", "127.0.0.1", cfg.Host)
	}
	if cfg.Port != 4444 {
		t.Errorf("expected default port 4444, got %d", cfg.Port)
	}
	if cfg.RefreshIntervalMs != 30000 {
		t.Errorf("expected default refresh_interval_ms 30000, got %d", cfg.RefreshIntervalMs)
	}
	if !cfg.LocalOnly {
		t.Error("expected local_only to default to true")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mdview.yml")

	original := DefaultConfig()
	original.Port = 8080
	original.RefreshIntervalMs = 10000
	original.Include = []string{"docs/**/*.md"}
	original.OpenBrowser = false

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Port != original.Port {
		t.Errorf("port: got %d, want %d", loaded.Port, original.Port)
	}
	if loaded.RefreshIntervalMs != original.RefreshIntervalMs {
		t.Errorf("refresh_interval_ms: got %d, want %d", loaded.RefreshIntervalMs, original.RefreshIntervalMs)
	}
	if loaded.OpenBrowser != original.OpenBrowser {
		t.Errorf("open_browser: got %v, want %v", loaded.OpenBrowser, original.OpenBrowser)
	}
	if len(loaded.Include) != 1 || loaded.Include[0] != "docs/**/*.md" {
		t.Errorf("include: got %v, want %v", loaded.Include, original.Include)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if cfg.Port != 4444 {
		t.Errorf("expected default port for missing file, got %d", cfg.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	os.Setenv("MDVIEW_PORT", "9999")
	defer os.Unsetenv("MDVIEW_PORT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("expected env override port 9999, got %d", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}

	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}

	cfg = DefaultConfig()
	cfg.RefreshIntervalMs = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative refresh interval")
	}

	cfg = DefaultConfig()
	cfg.RefreshIntervalMs = 500
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sub-second refresh interval")
	}

	cfg = DefaultConfig()
	cfg.RefreshIntervalMs = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero refresh interval (manual only) should validate, got %v", err)
	}
}
