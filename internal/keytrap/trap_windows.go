//go:build windows

package keytrap

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
	procGetCurrentThreadId  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	WH_KEYBOARD_LL = 13
	WM_KEYDOWN     = 0x0100
	WM_KEYUP       = 0x0101
	WM_SYSKEYDOWN  = 0x0104
	WM_SYSKEYUP    = 0x0105
	WM_QUIT        = 0x0012
)

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// Trap is the Windows keyboard capture based on a WH_KEYBOARD_LL hook.
type Trap struct {
	mu       sync.Mutex
	events   chan KeyEvent
	running  bool
	threadID uint32
}

// The hook callback carries no context pointer, so the active trap is held
// in a package variable. One trap per process.
var (
	instanceTrap *Trap
	keyboardHook uintptr
)

// NewTrap creates a new keyboard trap.
func NewTrap() *Trap {
	return &Trap{
		events: make(chan KeyEvent, 256),
	}
}

// Events returns the key event channel.
func (t *Trap) Events() <-chan KeyEvent {
	return t.events
}

// Start installs the global hook. The hook and its message loop must live
// on the same OS thread, so both run on a dedicated locked goroutine.
func (t *Trap) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("keytrap already running")
	}
	instanceTrap = t

	// Start holds t.mu while it waits on the channel, so the hook goroutine
	// must never touch the mutex before its send; the thread id travels in
	// the handshake instead.
	type hookStart struct {
		tid uint32
		err error
	}
	started := make(chan hookStart, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hMod, _, _ := procGetModuleHandle.Call(0)
		hook, _, err := procSetWindowsHookEx.Call(
			WH_KEYBOARD_LL,
			syscall.NewCallback(keyboardHookProc),
			hMod,
			0,
		)
		if hook == 0 {
			started <- hookStart{err: fmt.Errorf("SetWindowsHookEx failed: %v", err)}
			return
		}
		keyboardHook = hook

		tid, _, _ := procGetCurrentThreadId.Call()
		started <- hookStart{tid: uint32(tid)}
		log.Println("Keytrap: global keyboard hook installed")

		var msg struct {
			Hwnd    syscall.Handle
			Message uint32
			Wparam  uintptr
			Lparam  uintptr
			Time    uint32
			Pt      struct{ X, Y int32 }
		}

		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
		}

		procUnhookWindowsHookEx.Call(keyboardHook)
		keyboardHook = 0
		log.Println("Keytrap: keyboard hook removed")
	}()

	res := <-started
	if res.err != nil {
		return res.err
	}

	t.threadID = res.tid
	t.running = true
	return nil
}

// Stop removes the hook and closes the event channel.
func (t *Trap) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false

	// WM_QUIT makes GetMessage return 0, which unwinds the hook thread.
	if t.threadID != 0 {
		procPostThreadMessage.Call(uintptr(t.threadID), WM_QUIT, 0, 0)
		t.threadID = 0
	}

	close(t.events)
	return nil
}

// deliver hands an event to the channel without ever blocking the hook.
func (t *Trap) deliver(ev KeyEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	select {
	case t.events <- ev:
	default:
		// Channel full, drop event. The recognizer tolerates gaps; a
		// blocked hook callback would freeze system-wide input.
	}
}

func keyboardHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 && instanceTrap != nil {
		kbd := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		pressed := wParam == WM_KEYDOWN || wParam == WM_SYSKEYDOWN

		instanceTrap.deliver(KeyEvent{
			VKCode:    kbd.VkCode,
			Pressed:   pressed,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	ret, _, _ := procCallNextHookEx.Call(keyboardHook, uintptr(nCode), wParam, lParam)
	return ret
}
