//go:build windows

package cursor

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procLoadImage            = user32.NewProc("LoadImageW")
	procCopyImage            = user32.NewProc("CopyImage")
	procSetSystemCursor      = user32.NewProc("SetSystemCursor")
	procDestroyCursor        = user32.NewProc("DestroyCursor")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

const (
	IMAGE_CURSOR    = 2
	LR_LOADFROMFILE = 0x0010
	LR_SHARED       = 0x8000
	SPI_SETCURSORS  = 0x0057
)

// systemTable is the real Windows cursor table. It is stateless; the state
// it manipulates is the OS-owned global table.
type systemTable struct{}

// NewSystemTable returns the capability for the live system cursor table.
func NewSystemTable() (Table, error) {
	return systemTable{}, nil
}

func (systemTable) LoadFile(path string) (Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid path %q: %v", ErrPlatform, path, err)
	}

	h, _, callErr := procLoadImage.Call(
		0,
		uintptr(unsafe.Pointer(p)),
		IMAGE_CURSOR,
		0, 0,
		LR_SHARED|LR_LOADFROMFILE,
	)
	if h == 0 {
		if errno, ok := callErr.(syscall.Errno); ok &&
			(errno == windows.ERROR_FILE_NOT_FOUND || errno == windows.ERROR_PATH_NOT_FOUND) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return 0, fmt.Errorf("%w: LoadImage(%s): %v", ErrPlatform, path, callErr)
	}
	return Handle(h), nil
}

func (systemTable) LoadSystem(kind Kind) (Handle, error) {
	// The stock image is loaded shared, then copied so that overwriting the
	// slot later does not change what we retained.
	shared, _, callErr := procLoadImage.Call(
		0,
		uintptr(kind), // MAKEINTRESOURCE(OCR_* id)
		IMAGE_CURSOR,
		0, 0,
		LR_SHARED,
	)
	if shared == 0 {
		return 0, fmt.Errorf("%w: LoadImage(%s): %v", ErrPlatform, kind, callErr)
	}

	h, _, callErr := procCopyImage.Call(shared, IMAGE_CURSOR, 0, 0, 0)
	if h == 0 {
		return 0, fmt.Errorf("%w: CopyImage(%s): %v", ErrPlatform, kind, callErr)
	}
	return Handle(h), nil
}

func (systemTable) SetSlot(kind Kind, h Handle) error {
	// SetSystemCursor destroys the handle it is given once the slot is
	// updated, which is why Table.SetSlot takes ownership.
	ret, _, callErr := procSetSystemCursor.Call(uintptr(h), uintptr(kind))
	if ret == 0 {
		return fmt.Errorf("%w: SetSystemCursor(%s): %v", ErrPlatform, kind, callErr)
	}
	return nil
}

func (systemTable) Release(h Handle) error {
	ret, _, callErr := procDestroyCursor.Call(uintptr(h))
	if ret == 0 {
		return fmt.Errorf("%w: DestroyCursor: %v", ErrPlatform, callErr)
	}
	return nil
}

func (systemTable) RestoreDefaults() error {
	ret, _, callErr := procSystemParametersInfo.Call(SPI_SETCURSORS, 0, 0, 0)
	if ret == 0 {
		return fmt.Errorf("%w: SystemParametersInfo(SPI_SETCURSORS): %v", ErrPlatform, callErr)
	}
	return nil
}
