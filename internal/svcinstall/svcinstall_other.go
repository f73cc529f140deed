//go:build !linux && !windows && !darwin

package svcinstall

import "fmt"

func isRootImpl() bool {
	return false
}

func installImpl(cfg Config, execPath string) error {
	return fmt.Errorf("service installation is not supported on this platform")
}

func uninstallImpl(serviceName string) error {
	return fmt.Errorf("service uninstallation is not supported on this platform")
}

func statusImpl(serviceName string) (string, error) {
	return "", fmt.Errorf("service status is not supported on this platform")
}

func isInstalledImpl(serviceName string) bool {
	return false
}
