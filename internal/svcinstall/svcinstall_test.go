package svcinstall

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/path/to/config.yaml")

	if cfg.Name != "saltbox" {
		t.Errorf("Name = %q, want %q", cfg.Name, "saltbox")
	}
	if cfg.DisplayName != "Saltbox Encryption Service" {
		t.Errorf("DisplayName = %q, want %q", cfg.DisplayName, "Saltbox Encryption Service")
	}
	if cfg.Description == "" {
		t.Error("Description should not be empty")
	}
	if !filepath.IsAbs(cfg.ConfigPath) {
		t.Errorf("ConfigPath = %q, should be absolute", cfg.ConfigPath)
	}

	expectedDir := filepath.Dir(cfg.ConfigPath)
	if cfg.WorkingDir != expectedDir {
		t.Errorf("WorkingDir = %q, want %q", cfg.WorkingDir, expectedDir)
	}
}

func TestDefaultConfigRelativePath(t *testing.T) {
	cfg := DefaultConfig("./saltbox.yaml")

	if !filepath.IsAbs(cfg.ConfigPath) {
		t.Errorf("ConfigPath = %q, should be absolute", cfg.ConfigPath)
	}
}

func TestPlatform(t *testing.T) {
	platform := Platform()

	switch runtime.GOOS {
	case "linux":
		if platform != "linux" {
			t.Errorf("Platform() = %q, want %q on Linux", platform, "linux")
		}
	case "windows":
		if platform != "windows" {
			t.Errorf("Platform() = %q, want %q on Windows", platform, "windows")
		}
	case "darwin":
		if platform != "darwin" {
			t.Errorf("Platform() = %q, want %q on macOS", platform, "darwin")
		}
	default:
		if platform != "unsupported" {
			t.Errorf("Platform() = %q, want %q on unsupported OS", platform, "unsupported")
		}
	}
}

func TestIsSupported(t *testing.T) {
	supported := IsSupported()

	switch runtime.GOOS {
	case "linux", "windows", "darwin":
		if !supported {
			t.Errorf("IsSupported() = false, want true on %s", runtime.GOOS)
		}
	default:
		if supported {
			t.Errorf("IsSupported() = true, want false on %s", runtime.GOOS)
		}
	}
}

func TestIsRootDoesNotPanic(t *testing.T) {
	_ = IsRoot()
}

func TestIsInstalledFalseForUnknownService(t *testing.T) {
	if IsInstalled("definitely-not-installed-service-12345") {
		t.Error("IsInstalled() = true for non-existent service, want false")
	}
}

func TestStatusNonExistent(t *testing.T) {
	status, err := Status("definitely-not-installed-service-12345")

	switch runtime.GOOS {
	case "linux":
		if err == nil {
			if status != "inactive" && status != "unknown" {
				t.Errorf("Status() = %q, expected 'inactive' or 'unknown'", status)
			}
		}
	case "darwin":
		if err == nil {
			if status != "not installed" && status != "unknown" {
				t.Errorf("Status() = %q, expected 'not installed' or 'unknown'", status)
			}
		}
	case "windows":
		if err == nil {
			if status != "not installed" {
				t.Errorf("Status() = %q, expected 'not installed'", status)
			}
		}
	default:
		if err == nil {
			t.Error("Status() should return error on unsupported platform")
		}
	}
}

func TestInstallWithoutRoot(t *testing.T) {
	if IsRoot() {
		t.Skip("test requires a non-root user")
	}

	cfg := DefaultConfig("/tmp/test-saltbox.yaml")
	err := Install(cfg)
	if err == nil {
		t.Fatal("Install() should fail when not running as root")
	}
}

func TestUninstallWithoutRoot(t *testing.T) {
	if IsRoot() {
		t.Skip("test requires a non-root user")
	}

	if err := Uninstall("saltbox"); err == nil {
		t.Fatal("Uninstall() should fail when not running as root")
	}
}
