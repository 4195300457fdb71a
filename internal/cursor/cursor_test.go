package cursor

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"curlock/internal/sequence"
)

// fakeTable models the OS cursor table: handles reference image contents,
// slots hold image contents, and installing a handle consumes it. Leaked
// handles are whatever is still live at the end of a test.
type fakeTable struct {
	nextHandle Handle
	imageOf    map[Handle]string
	slots      map[Kind]string
	files      map[string]string
	setCalls   int
	restored   bool
}

func newFakeTable() *fakeTable {
	f := &fakeTable{
		imageOf: make(map[Handle]string),
		slots:   make(map[Kind]string),
		files:   make(map[string]string),
	}
	for _, k := range All() {
		f.slots[k] = "default:" + k.String()
	}
	return f
}

func (f *fakeTable) alloc(image string) Handle {
	f.nextHandle++
	f.imageOf[f.nextHandle] = image
	return f.nextHandle
}

func (f *fakeTable) LoadFile(path string) (Handle, error) {
	image, ok := f.files[path]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return f.alloc(image), nil
}

func (f *fakeTable) LoadSystem(kind Kind) (Handle, error) {
	return f.alloc(f.slots[kind]), nil
}

func (f *fakeTable) SetSlot(kind Kind, h Handle) error {
	image, ok := f.imageOf[h]
	if !ok {
		return fmt.Errorf("%w: invalid handle %d", ErrPlatform, h)
	}
	delete(f.imageOf, h) // the table takes ownership
	f.slots[kind] = image
	f.setCalls++
	return nil
}

func (f *fakeTable) Release(h Handle) error {
	if _, ok := f.imageOf[h]; !ok {
		return fmt.Errorf("%w: double release of handle %d", ErrPlatform, h)
	}
	delete(f.imageOf, h)
	return nil
}

func (f *fakeTable) RestoreDefaults() error {
	for _, k := range All() {
		f.slots[k] = "default:" + k.String()
	}
	f.restored = true
	return nil
}

func (f *fakeTable) liveHandles() int {
	return len(f.imageOf)
}

func TestLoadFileThenCloseLeaksNothing(t *testing.T) {
	table := newFakeTable()
	table.files["normal.cur"] = "custom"

	res, err := LoadFile(table, "normal.cur")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if res.Origin() != "normal.cur" {
		t.Errorf("Expected origin 'normal.cur', got %q", res.Origin())
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got: %v", err)
	}
	if n := table.liveHandles(); n != 0 {
		t.Errorf("Expected 0 live handles after Close, got %d", n)
	}
}

func TestLoadFileMissingReportsNotFound(t *testing.T) {
	table := newFakeTable()

	_, err := LoadFile(table, "does-not-exist.cur")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got: %v", err)
	}
	if table.setCalls != 0 {
		t.Errorf("No slot must change on a failed load, got %d SetSlot calls", table.setCalls)
	}
	if n := table.liveHandles(); n != 0 {
		t.Errorf("Expected 0 live handles, got %d", n)
	}
}

func TestInstallThenRevertRestoresSlot(t *testing.T) {
	for _, kind := range All() {
		t.Run(kind.String(), func(t *testing.T) {
			table := newFakeTable()
			table.files["normal.cur"] = "custom"
			before := table.slots[kind]

			res, err := LoadFile(table, "normal.cur")
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			ov, err := Install(table, res, kind)
			if err != nil {
				t.Fatalf("Install failed: %v", err)
			}
			if table.slots[kind] != "custom" {
				t.Fatalf("Expected slot to hold the replacement, got %q", table.slots[kind])
			}

			if err := ov.Revert(); err != nil {
				t.Fatalf("Revert failed: %v", err)
			}
			if table.slots[kind] != before {
				t.Errorf("Expected slot restored to %q, got %q", before, table.slots[kind])
			}
			if n := table.liveHandles(); n != 0 {
				t.Errorf("Expected 0 live handles after revert, got %d", n)
			}
		})
	}
}

func TestRevertTwiceIsSafe(t *testing.T) {
	table := newFakeTable()
	table.files["normal.cur"] = "custom"
	before := table.slots[Normal]

	res, _ := LoadFile(table, "normal.cur")
	ov, err := Install(table, res, Normal)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if err := ov.Revert(); err != nil {
		t.Fatalf("First Revert failed: %v", err)
	}
	calls := table.setCalls
	if err := ov.Revert(); err != nil {
		t.Fatalf("Second Revert failed: %v", err)
	}
	if table.setCalls != calls {
		t.Errorf("Second Revert must not touch the table, got %d extra calls", table.setCalls-calls)
	}
	if table.slots[Normal] != before {
		t.Errorf("Expected slot %q after double revert, got %q", before, table.slots[Normal])
	}
	if !ov.Reverted() {
		t.Error("Expected Reverted() to report true")
	}
}

func TestInstallConsumesResource(t *testing.T) {
	table := newFakeTable()
	table.files["normal.cur"] = "custom"

	res, _ := LoadFile(table, "normal.cur")
	if _, err := Install(table, res, Normal); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	// Ownership moved into the override; closing the spent resource must
	// not release anything.
	if err := res.Close(); err != nil {
		t.Errorf("Close on a spent resource should be a no-op, got: %v", err)
	}

	// A spent resource cannot be installed again.
	if _, err := Install(table, res, IBeam); !errors.Is(err, ErrReleased) {
		t.Errorf("Expected ErrReleased installing a spent resource, got: %v", err)
	}
}

func TestInstallFailureLeaksNothing(t *testing.T) {
	table := newFakeTable()
	table.files["normal.cur"] = "custom"

	res, _ := LoadFile(table, "normal.cur")
	if err := res.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := Install(table, res, Normal); err == nil {
		t.Fatal("Expected Install of a released resource to fail")
	}
	if n := table.liveHandles(); n != 0 {
		t.Errorf("Expected 0 live handles after failed install, got %d", n)
	}
}

// setSlotFailTable rejects every install while leaving handle ownership
// untouched, mirroring how the real table behaves when the OS call fails.
type setSlotFailTable struct {
	*fakeTable
}

func (f setSlotFailTable) SetSlot(kind Kind, h Handle) error {
	return fmt.Errorf("%w: slot rejected", ErrPlatform)
}

func TestInstallSetSlotFailureLeaksNothing(t *testing.T) {
	inner := newFakeTable()
	inner.files["normal.cur"] = "custom"
	table := setSlotFailTable{inner}

	res, err := LoadFile(table, "normal.cur")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if _, err := Install(table, res, Normal); !errors.Is(err, ErrPlatform) {
		t.Fatalf("Expected ErrPlatform from Install, got: %v", err)
	}
	if inner.slots[Normal] != "default:Normal" {
		t.Errorf("Slot must be untouched after failed install, got %q", inner.slots[Normal])
	}
	if n := inner.liveHandles(); n != 0 {
		t.Errorf("Expected 0 live handles after failed install, got %d", n)
	}
}

// TestUnlockSequenceDrivesSingleRevert wires the recognizer to an override the
// way the service does: completion feeds a once-guarded unlock, and even with
// the sequence typed twice the slot is restored by exactly one table call.
func TestUnlockSequenceDrivesSingleRevert(t *testing.T) {
	table := newFakeTable()
	table.files["prank.cur"] = "custom"
	before := table.slots[Normal]

	res, err := LoadFile(table, "prank.cur")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	ov, err := Install(table, res, Normal)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	installCalls := table.setCalls

	rec, err := sequence.New([]string{"J", "U", "S", "T"})
	if err != nil {
		t.Fatalf("sequence.New failed: %v", err)
	}

	reverts := 0
	var once sync.Once
	unlock := func() {
		once.Do(func() {
			if err := ov.Revert(); err != nil {
				t.Errorf("Revert failed: %v", err)
			}
			reverts++
		})
	}

	// Noise, the full sequence, then the full sequence again.
	for _, sym := range []string{"X", "J", "U", "X", "J", "U", "S", "T", "J", "U", "S", "T"} {
		if rec.Consume(sym) == sequence.Complete {
			unlock()
		}
	}

	if reverts != 1 {
		t.Fatalf("Expected exactly 1 revert, got %d", reverts)
	}
	if table.setCalls != installCalls+1 {
		t.Errorf("Expected exactly 1 table call for the revert, got %d", table.setCalls-installCalls)
	}
	if table.slots[Normal] != before {
		t.Errorf("Expected slot restored to %q, got %q", before, table.slots[Normal])
	}
	if n := table.liveHandles(); n != 0 {
		t.Errorf("Expected 0 live handles after unlock, got %d", n)
	}
}

func TestRestoreDefaultsResetsEverySlot(t *testing.T) {
	table := newFakeTable()
	table.files["normal.cur"] = "custom"

	res, _ := LoadFile(table, "normal.cur")
	if _, err := Install(table, res, Normal); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := table.RestoreDefaults(); err != nil {
		t.Fatalf("RestoreDefaults failed: %v", err)
	}
	if table.slots[Normal] != "default:Normal" {
		t.Errorf("Expected default image back, got %q", table.slots[Normal])
	}
}
