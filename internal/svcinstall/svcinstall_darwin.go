//go:build darwin

package svcinstall

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const launchdPlistPath = "/Library/LaunchDaemons"

func isRootImpl() bool {
	return os.Getuid() == 0
}

func installImpl(cfg Config, execPath string) error {
	plistName := "com." + cfg.Name + ".plist"
	plistPath := filepath.Join(launchdPlistPath, plistName)

	if _, err := os.Stat(plistPath); err == nil {
		return fmt.Errorf("service %s is already installed at %s", cfg.Name, plistPath)
	}

	plist := generateLaunchdPlist(cfg, execPath)
	if err := os.WriteFile(plistPath, []byte(plist), 0644); err != nil {
		return fmt.Errorf("write launchd plist file: %w", err)
	}
	fmt.Printf("Created launchd plist: %s\n", plistPath)

	label := "com." + cfg.Name
	if output, err := runCommand("launchctl", "load", "-w", plistPath); err != nil {
		os.Remove(plistPath)
		return fmt.Errorf("load service: %s: %w", output, err)
	}
	fmt.Printf("Loaded service: %s\n", label)

	status, _ := statusImpl(cfg.Name)
	fmt.Printf("Service status: %s\n", status)

	return nil
}

func uninstallImpl(serviceName string) error {
	plistName := "com." + serviceName + ".plist"
	plistPath := filepath.Join(launchdPlistPath, plistName)

	if _, err := os.Stat(plistPath); os.IsNotExist(err) {
		return fmt.Errorf("service %s is not installed", serviceName)
	}

	label := "com." + serviceName
	if output, err := runCommand("launchctl", "unload", "-w", plistPath); err != nil {
		if !strings.Contains(output, "Could not find specified service") {
			fmt.Printf("Note: could not unload service: %s\n", strings.TrimSpace(output))
		}
	} else {
		fmt.Printf("Unloaded service: %s\n", label)
	}

	if err := os.Remove(plistPath); err != nil {
		return fmt.Errorf("remove launchd plist file: %w", err)
	}
	fmt.Printf("Removed launchd plist: %s\n", plistPath)

	return nil
}

func statusImpl(serviceName string) (string, error) {
	label := "com." + serviceName

	output, err := runCommand("launchctl", "list", label)
	if err != nil {
		if strings.Contains(output, "Could not find service") {
			return "not installed", nil
		}
		return "unknown", nil
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[2] == label {
			if fields[0] == "-" {
				return "stopped", nil
			}
			return "running", nil
		}
	}

	output, _ = runCommand("launchctl", "print", "system/"+label)
	if strings.Contains(output, "state = running") {
		return "running", nil
	}
	if strings.Contains(output, "state = not running") {
		return "stopped", nil
	}
	return "loaded", nil
}

func isInstalledImpl(serviceName string) bool {
	plistPath := filepath.Join(launchdPlistPath, "com."+serviceName+".plist")
	_, err := os.Stat(plistPath)
	return err == nil
}

func generateLaunchdPlist(cfg Config, execPath string) string {
	label := "com." + cfg.Name
	logPath := filepath.Join(cfg.WorkingDir, cfg.Name+".log")
	errPath := filepath.Join(cfg.WorkingDir, cfg.Name+".err.log")

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>

    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
        <string>serve</string>
        <string>-c</string>
        <string>%s</string>
    </array>

    <key>WorkingDirectory</key>
    <string>%s</string>

    <key>RunAtLoad</key>
    <true/>

    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>

    <key>ThrottleInterval</key>
    <integer>5</integer>

    <key>StandardOutPath</key>
    <string>%s</string>

    <key>StandardErrorPath</key>
    <string>%s</string>

    <key>ProcessType</key>
    <string>Background</string>
</dict>
</plist>
`, label, execPath, cfg.ConfigPath, cfg.WorkingDir, logPath, errPath)
}
