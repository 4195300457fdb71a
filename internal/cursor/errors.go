package cursor

import "errors"

var (
	// ErrUnsupportedPlatform is returned when running on an OS without a
	// system cursor table
	ErrUnsupportedPlatform = errors.New("system cursor table not supported on this platform")

	// ErrNotFound is returned when the cursor image file does not exist
	ErrNotFound = errors.New("cursor file not found")

	// ErrPlatform is returned for any other OS-reported failure while
	// loading, copying or installing a cursor image. These are treated as
	// non-recoverable: the caller must abort rather than continue with a
	// partially-overridden cursor table.
	ErrPlatform = errors.New("cursor system call failed")

	// ErrReleased is returned when a cursor resource is used after its
	// handle has been released or transferred into an override
	ErrReleased = errors.New("cursor resource no longer owns its handle")

	// ErrUnknownKind is returned when parsing an unrecognized cursor kind name
	ErrUnknownKind = errors.New("unknown cursor kind")
)
