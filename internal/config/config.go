// Package config provides configuration management for the cursor lock.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Config represents the application configuration
type Config struct {
	// General contains general application settings
	General GeneralConfig `json:"general"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// CursorPath is the path to the replacement cursor image file.
	// Empty means the built-in blank cursor (hides the pointer).
	CursorPath string `json:"cursor_path,omitempty"`

	// CursorKind is the cursor table slot to override (e.g. "Normal")
	CursorKind string `json:"cursor_kind"`

	// UnlockSequence is the ordered list of key names that restores the
	// cursor and exits (e.g. ["J","U","S","T"])
	UnlockSequence []string `json:"unlock_sequence"`

	// TrayEnabled shows a system tray icon with a restore-and-quit item
	TrayEnabled bool `json:"tray_enabled"`

	// ShowSequenceHint adds the unlock sequence to the tray menu
	ShowSequenceHint bool `json:"show_sequence_hint"`

	// APIEnabled enables the local HTTP control API
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the port for the control API (default: 18321)
	APIPort int `json:"api_port"`

	// APIToken is an optional authentication token for API requests
	APIToken string `json:"api_token,omitempty"`

	// AllowRemoteUnlock binds the API to all interfaces so another machine
	// can request the unlock. Off by default; the API is loopback-only.
	AllowRemoteUnlock bool `json:"allow_remote_unlock"`

	// StartOnBoot determines if the app starts on login
	StartOnBoot bool `json:"start_on_boot"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			CursorKind: "Normal",
			UnlockSequence: []string{
				"J", "U", "S", "T", "A", "P", "R", "A", "N", "K", "B", "R", "O",
			},
			TrayEnabled:       true,
			ShowSequenceHint:  false,
			APIEnabled:        true,
			APIPort:           18321,
			AllowRemoteUnlock: false,
			StartOnBoot:       false,
		},
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	return &Manager{
		configPath: configPath,
		config:     DefaultConfig(),
	}, nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "curlock")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "curlock")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "curlock")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, m.config); err != nil {
		return err
	}
	if m.onChanged != nil {
		m.onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
	if m.onChanged != nil {
		m.onChanged()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
