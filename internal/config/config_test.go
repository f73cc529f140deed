package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
	}
	if cfg.Keyring.Dir != "./keys" {
		t.Errorf("Keyring.Dir = %s, want ./keys", cfg.Keyring.Dir)
	}
	if cfg.Default.MajorVersion != 2 {
		t.Errorf("Default.MajorVersion = %d, want 2", cfg.Default.MajorVersion)
	}
	if cfg.Default.ChunkSize <= 0 {
		t.Errorf("Default.ChunkSize = %d, want > 0", cfg.Default.ChunkSize)
	}
	if cfg.Service.Address != ":8443" {
		t.Errorf("Service.Address = %s, want :8443", cfg.Service.Address)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() config failed validation: %v", err)
	}
}

func TestParse_OverlaysDefaults(t *testing.T) {
	yamlConfig := `
log:
  level: debug
default:
  major_version: 1
  chunk_size: 4096
`
	cfg, err := Parse([]byte(yamlConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %s, want text (unset fields keep the default)", cfg.Log.Format)
	}
	if cfg.Default.MajorVersion != 1 {
		t.Errorf("Default.MajorVersion = %d, want 1", cfg.Default.MajorVersion)
	}
	if cfg.Default.ChunkSize != 4096 {
		t.Errorf("Default.ChunkSize = %d, want 4096", cfg.Default.ChunkSize)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("not: [valid: yaml"))
	if err == nil {
		t.Fatal("expected an error for invalid YAML")
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad log level", "log:\n  level: verbose\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"empty keyring dir", "keyring:\n  dir: \"\"\n"},
		{"zero chunk size", "default:\n  chunk_size: 0\n"},
		{"bad major version", "default:\n  major_version: 3\n"},
		{"empty service address", "service:\n  address: \"\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	os.Setenv("SALTBOX_TEST_KEYRING_DIR", "/tmp/saltbox-keys")
	defer os.Unsetenv("SALTBOX_TEST_KEYRING_DIR")

	cfg, err := Parse([]byte("keyring:\n  dir: ${SALTBOX_TEST_KEYRING_DIR}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Keyring.Dir != "/tmp/saltbox-keys" {
		t.Errorf("Keyring.Dir = %s, want /tmp/saltbox-keys", cfg.Keyring.Dir)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/saltbox.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saltbox.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}
}
