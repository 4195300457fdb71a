//go:build windows

package osutils

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")
)

const (
	CTRL_CLOSE_EVENT    = 2
	CTRL_LOGOFF_EVENT   = 5
	CTRL_SHUTDOWN_EVENT = 6
)

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}

	return member
}

var lastChanceHandler func()

// OnConsoleClose registers a last-chance cleanup handler invoked when the
// console window closes or the session logs off or shuts down. The process
// dies shortly after the handler returns, so the callback must be quick and
// must not block.
func OnConsoleClose(fn func()) error {
	lastChanceHandler = fn

	ret, _, err := procSetConsoleCtrlHandler.Call(syscall.NewCallback(consoleCtrlHandler), 1)
	if ret == 0 {
		return fmt.Errorf("SetConsoleCtrlHandler failed: %v", err)
	}
	return nil
}

func consoleCtrlHandler(ctrlType uint32) uintptr {
	switch ctrlType {
	case CTRL_CLOSE_EVENT, CTRL_LOGOFF_EVENT, CTRL_SHUTDOWN_EVENT:
		if lastChanceHandler != nil {
			lastChanceHandler()
		}
	}
	// Ctrl+C and Ctrl+Break fall through to the runtime's signal handling
	return 0
}
