// Package cursor loads pointer cursor images and substitutes them into the
// system-wide cursor table, guaranteeing the previous image can be put back.
package cursor

import (
	"fmt"
	"sync"
)

// Handle is an opaque OS cursor handle.
type Handle uintptr

// Table is the capability for the single OS-owned cursor table. All access
// to the table goes through this interface; there is exactly one real
// implementation per platform plus a fake for tests.
type Table interface {
	// LoadFile loads a cursor image from a .cur/.ani file and returns an
	// owned handle.
	LoadFile(path string) (Handle, error)

	// LoadSystem returns a private copy of the stock image currently
	// installed for kind. The copy stays valid when the slot is later
	// overwritten.
	LoadSystem(kind Kind) (Handle, error)

	// SetSlot installs h into the table slot for kind. The table takes
	// ownership of h; the handle must not be used or released afterwards.
	SetSlot(kind Kind, h Handle) error

	// Release frees a handle that was never installed into a slot.
	Release(h Handle) error

	// RestoreDefaults reloads every slot from the user's configured cursor
	// scheme. Last-chance recovery only; normal restore goes through
	// Override.Revert.
	RestoreDefaults() error
}

// Resource is one loaded cursor image. Exactly one Resource owns a given
// handle at a time: transferring the handle into an Override (or releasing
// it) leaves the Resource spent, so a double release is impossible by
// construction.
type Resource struct {
	table  Table
	handle Handle
	origin string
	spent  bool
}

// LoadFile loads a cursor image from disk. A missing file is reported as
// ErrNotFound; any other load failure is ErrPlatform and not worth retrying.
func LoadFile(t Table, path string) (*Resource, error) {
	h, err := t.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Resource{table: t, handle: h, origin: path}, nil
}

// LoadSystem loads a private copy of the stock image for kind. The stock
// images always exist, so any failure here means the environment is broken.
func LoadSystem(t Table, kind Kind) (*Resource, error) {
	h, err := t.LoadSystem(kind)
	if err != nil {
		return nil, fmt.Errorf("stock %s image: %w", kind, err)
	}
	return &Resource{table: t, handle: h, origin: "system:" + kind.String()}, nil
}

// Origin reports where the image came from (file path or system kind).
func (r *Resource) Origin() string {
	return r.origin
}

// take transfers the handle out of the resource. The resource is spent
// afterwards and Close becomes a no-op.
func (r *Resource) take() (Handle, error) {
	if r.spent {
		return 0, ErrReleased
	}
	r.spent = true
	h := r.handle
	r.handle = 0
	return h, nil
}

// Close releases the OS resource. Safe to call after the handle has been
// transferred into an override, and safe to call twice; only the first call
// on a still-owned handle does anything.
func (r *Resource) Close() error {
	if r.spent {
		return nil
	}
	h, err := r.take()
	if err != nil {
		return err
	}
	return r.table.Release(h)
}

// Override is an active substitution of one Kind slot in the system cursor
// table. It keeps the prior image alive so Revert can restore it.
type Override struct {
	mu       sync.Mutex
	table    Table
	kind     Kind
	prior    *Resource
	reverted bool
}

// Install retains a copy of the image currently in the slot for kind, then
// installs replacement into it. Ownership of replacement moves into the
// table; the caller keeps the returned Override and must arrange for Revert
// to run on every exit path. The change is visible system-wide immediately.
func Install(t Table, replacement *Resource, kind Kind) (*Override, error) {
	prior, err := LoadSystem(t, kind)
	if err != nil {
		return nil, err
	}

	h, err := replacement.take()
	if err != nil {
		prior.Close()
		return nil, err
	}
	if err := t.SetSlot(kind, h); err != nil {
		// A failed install does not consume the handle.
		t.Release(h)
		prior.Close()
		return nil, fmt.Errorf("install %s override: %w", kind, err)
	}

	return &Override{table: t, kind: kind, prior: prior}, nil
}

// Revert restores the slot to the retained prior image. Safe to call any
// number of times from any code path; only the first call touches the
// table, because installing the prior image hands its handle to the OS.
func (o *Override) Revert() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.reverted {
		return nil
	}

	h, err := o.prior.take()
	if err != nil {
		return err
	}
	if err := o.table.SetSlot(o.kind, h); err != nil {
		return fmt.Errorf("revert %s override: %w", o.kind, err)
	}

	o.reverted = true
	return nil
}

// Kind reports which slot the override occupies.
func (o *Override) Kind() Kind {
	return o.kind
}

// Reverted reports whether the override has already been reverted.
func (o *Override) Reverted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reverted
}
