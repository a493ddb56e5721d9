package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tool.Binary != "appstack" {
		t.Errorf("expected default tool binary, got %q", cfg.Tool.Binary)
	}
	if cfg.Runtime.Service != "docker" {
		t.Errorf("expected default runtime service, got %q", cfg.Runtime.Service)
	}
	if len(cfg.Packages.Required) == 0 {
		t.Error("expected non-empty default required packages")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
release:
  version: "2.1.0"
interpreter:
  minVersion: "3.12.7"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Release.Version != "2.1.0" {
		t.Errorf("expected overridden version, got %q", cfg.Release.Version)
	}
	if cfg.Interpreter.MinVersion != "3.12.7" {
		t.Errorf("expected overridden minVersion, got %q", cfg.Interpreter.MinVersion)
	}
	// Untouched sections keep their defaults.
	if cfg.Tool.InstallPath != "/usr/local/bin/appstack" {
		t.Errorf("expected default install path, got %q", cfg.Tool.InstallPath)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "relaese:\n  version: \"2.0\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for misspelled section")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReleaseURLExpansion(t *testing.T) {
	r := ReleaseConfig{
		URLTemplate: "https://example.com/v{version}/tool-{version}-linux-{arch}.tar.gz",
		Version:     "1.4.2",
	}
	got := r.URL("amd64")
	want := "https://example.com/v1.4.2/tool-1.4.2-linux-amd64.tar.gz"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
