// Package keytrap captures system-wide keyboard events through a global
// low-level hook and delivers them as a stream of key events.
package keytrap

// KeyEvent is one key press or release observed by the global hook.
type KeyEvent struct {
	// VKCode is the platform virtual-key code
	VKCode uint32

	// Pressed is true for key-down, false for key-up
	Pressed bool

	// Timestamp is a Unix ms timestamp
	Timestamp int64
}

// Capture is the interface the controller consumes key events through.
type Capture interface {
	Start() error
	Stop() error
	Events() <-chan KeyEvent
}
