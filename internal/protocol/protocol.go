// Package protocol defines the messages exchanged over the control API's
// WebSocket feed.
package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeStatus carries the full lock status, sent on connect and on change
	TypeStatus MessageType = "status"

	// TypeProgress reports how far the unlock sequence has matched
	TypeProgress MessageType = "progress"

	// TypeUnlock is sent by a client to request revert and shutdown
	TypeUnlock MessageType = "unlock"

	// TypeReverted announces that the override was removed and the
	// process is exiting
	TypeReverted MessageType = "reverted"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StatusPayload describes the current override. The unlock sequence itself
// is never included; clients only learn its length.
type StatusPayload struct {
	Locked         bool   `json:"locked"`
	Kind           string `json:"kind"`
	CursorOrigin   string `json:"cursor_origin"`
	SequenceLength int    `json:"sequence_length"`
}

// ProgressPayload is the payload for TypeProgress
type ProgressPayload struct {
	Matched int `json:"matched"`
	Length  int `json:"length"`
}

// UnlockPayload is the payload for TypeUnlock
type UnlockPayload struct {
	// Origin identifies who asked for the unlock, for the shutdown log
	Origin string `json:"origin,omitempty"`
}

// RevertedPayload is the payload for TypeReverted
type RevertedPayload struct {
	Reason string `json:"reason"`
}
