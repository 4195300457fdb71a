//go:build !windows

package keytrap

import "fmt"

// Stub implementation for platforms without a global keyboard hook.

// Trap is a stub keyboard capture.
type Trap struct{}

// NewTrap creates a new stub trap.
func NewTrap() *Trap {
	return &Trap{}
}

// Start begins capturing input (stub).
func (t *Trap) Start() error {
	return fmt.Errorf("keyboard capture not supported on this platform")
}

// Stop stops capturing input (stub).
func (t *Trap) Stop() error {
	return nil
}

// Events returns the key event channel (stub).
func (t *Trap) Events() <-chan KeyEvent {
	return nil
}
