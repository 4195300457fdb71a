package config

import (
	"encoding/json"
	"testing"

	"curlock/internal/cursor"
	"curlock/internal/keytrap"
	"curlock/internal/sequence"
)

// TestDefaultConfigIsUsable checks that the shipped defaults parse through
// the components that consume them at startup.
func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := DefaultConfig()

	if _, err := cursor.KindFromName(cfg.General.CursorKind); err != nil {
		t.Errorf("Default cursor kind invalid: %v", err)
	}

	target, err := keytrap.ParseSequence(cfg.General.UnlockSequence)
	if err != nil {
		t.Fatalf("Default unlock sequence invalid: %v", err)
	}
	if _, err := sequence.New(target); err != nil {
		t.Errorf("Recognizer rejects default sequence: %v", err)
	}

	if cfg.General.APIPort == 0 {
		t.Error("Default API port must be set")
	}
	if cfg.General.AllowRemoteUnlock {
		t.Error("Remote unlock must be off by default")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.CursorPath = "custom.cur"
	cfg.General.UnlockSequence = []string{"A", "B", "C"}
	cfg.General.APIToken = "secret"

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Config
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.General.CursorPath != "custom.cur" {
		t.Errorf("CursorPath lost: %q", decoded.General.CursorPath)
	}
	if len(decoded.General.UnlockSequence) != 3 {
		t.Errorf("UnlockSequence lost: %v", decoded.General.UnlockSequence)
	}
	if decoded.General.APIToken != "secret" {
		t.Errorf("APIToken lost: %q", decoded.General.APIToken)
	}
}

func TestManagerSetInvokesCallback(t *testing.T) {
	m := &Manager{config: DefaultConfig()}

	called := 0
	m.RegisterChangeCallback(func() { called++ })

	cfg := DefaultConfig()
	cfg.General.TrayEnabled = false
	m.Set(cfg)

	if called != 1 {
		t.Errorf("Expected 1 callback invocation, got %d", called)
	}
	if m.Get().General.TrayEnabled {
		t.Error("Set did not replace the config")
	}
}
