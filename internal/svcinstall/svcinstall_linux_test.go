//go:build linux

package svcinstall

import (
	"strings"
	"testing"
)

func TestGenerateSystemdUnit(t *testing.T) {
	cfg := Config{
		Name:        "saltbox",
		DisplayName: "Saltbox Encryption Service",
		Description: "HTTP front end for saltpack encrypt/decrypt operations",
		ConfigPath:  "/etc/saltbox/config.yaml",
		WorkingDir:  "/etc/saltbox",
	}
	execPath := "/usr/local/bin/saltbox"

	unit := generateSystemdUnit(cfg, execPath)

	if !strings.Contains(unit, "[Unit]") {
		t.Error("unit file missing [Unit] section")
	}
	if !strings.Contains(unit, "[Service]") {
		t.Error("unit file missing [Service] section")
	}
	if !strings.Contains(unit, "[Install]") {
		t.Error("unit file missing [Install] section")
	}

	if !strings.Contains(unit, "Description=HTTP front end for saltpack encrypt/decrypt operations") {
		t.Error("unit file missing description")
	}

	expectedExec := "ExecStart=/usr/local/bin/saltbox serve -c /etc/saltbox/config.yaml"
	if !strings.Contains(unit, expectedExec) {
		t.Errorf("unit file missing ExecStart, expected: %s", expectedExec)
	}

	if !strings.Contains(unit, "WorkingDirectory=/etc/saltbox") {
		t.Error("unit file missing WorkingDirectory")
	}

	if !strings.Contains(unit, "NoNewPrivileges=true") {
		t.Error("unit file missing NoNewPrivileges")
	}
	if !strings.Contains(unit, "ProtectSystem=strict") {
		t.Error("unit file missing ProtectSystem")
	}
	if !strings.Contains(unit, "PrivateTmp=true") {
		t.Error("unit file missing PrivateTmp")
	}

	if !strings.Contains(unit, "Restart=on-failure") {
		t.Error("unit file missing Restart setting")
	}
	if !strings.Contains(unit, "RestartSec=5") {
		t.Error("unit file missing RestartSec setting")
	}

	if !strings.Contains(unit, "StandardOutput=journal") {
		t.Error("unit file missing StandardOutput")
	}
	if !strings.Contains(unit, "SyslogIdentifier=saltbox") {
		t.Error("unit file missing SyslogIdentifier")
	}

	if !strings.Contains(unit, "WantedBy=multi-user.target") {
		t.Error("unit file missing WantedBy")
	}
	if !strings.Contains(unit, "After=network-online.target") {
		t.Error("unit file missing network dependency")
	}
}

func TestIsRootImplLinuxConsistent(t *testing.T) {
	if isRootImpl() != isRootImpl() {
		t.Error("isRootImpl() returned inconsistent results")
	}
}

func TestIsInstalledImplFalseForUnknownService(t *testing.T) {
	if isInstalledImpl("definitely-not-installed-service-12345") {
		t.Error("isInstalledImpl() = true for non-existent service, want false")
	}
}
