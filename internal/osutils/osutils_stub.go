//go:build !windows

package osutils

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// OnConsoleClose is a no-op on platforms without console control events;
// signal handling covers the equivalent exits there.
func OnConsoleClose(fn func()) error {
	return nil
}
