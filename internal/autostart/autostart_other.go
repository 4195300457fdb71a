//go:build !windows

package autostart

import "fmt"

func enableWindows() error {
	return fmt.Errorf("not on Windows")
}

func disableWindows() error {
	return fmt.Errorf("not on Windows")
}

func isEnabledWindows() bool {
	return false
}
