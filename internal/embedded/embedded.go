// Package embedded ships the built-in blank cursor used when no cursor file
// is configured. The file is extracted once to a cache directory; the OS
// cursor loader only accepts files on disk.
package embedded

import (
	"embed"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

//go:embed assets/blank.cur
var assetsFS embed.FS

var (
	blankPath   string
	extractOnce sync.Once
	extractErr  error
)

// BlankCursorPath returns the on-disk path of the built-in blank cursor,
// extracting it on first call. The blank cursor is fully transparent, so
// installing it hides the pointer entirely.
func BlankCursorPath() (string, error) {
	extractOnce.Do(func() {
		blankPath, extractErr = extractBlankCursor()
	})
	return blankPath, extractErr
}

func extractBlankCursor() (string, error) {
	cacheDir, err := getCacheDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", err
	}

	data, err := assetsFS.ReadFile("assets/blank.cur")
	if err != nil {
		return "", err
	}

	dst := filepath.Join(cacheDir, "blank.cur")

	// Skip the write if a previous run already extracted it
	if stat, err := os.Stat(dst); err == nil && stat.Size() == int64(len(data)) {
		return dst, nil
	}

	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", err
	}
	return dst, nil
}

// getCacheDir returns the cache directory for extracted assets
func getCacheDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Caches", "curlock"), nil
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			localAppData = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(localAppData, "curlock", "cache"), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".cache", "curlock"), nil
	}
}
