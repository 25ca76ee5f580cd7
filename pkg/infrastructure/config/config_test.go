package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Namespace != "default" || cfg.Backend != BackendSQLite {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "namespace: dev\nbackend: memory\nlogMode: dev\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Namespace != "dev" || cfg.Backend != BackendMemory || cfg.LogMode != "dev" {
		t.Errorf("Expected overrides applied, got %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.JournalSize != 256 {
		t.Errorf("Expected default journal size, got %d", cfg.JournalSize)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: redis\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected an unknown backend to be rejected")
	}
}
