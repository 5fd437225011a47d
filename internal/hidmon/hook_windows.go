//go:build windows

package hidmon

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Low-level hook glue for Windows.
//
// SetWindowsHookEx accepts exactly one procedure per installed hook, so the
// procedures below are the fixed trampolines: they never capture state and
// reach the callback registries through package globals. The hook
// procedures run on the thread that owns the message pump, whichever
// thread that is.

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	wmQuit       = 0x0012
)

var (
	moduser32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = moduser32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = moduser32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = moduser32.NewProc("CallNextHookEx")
	procGetMessageW         = moduser32.NewProc("GetMessageW")
	procPeekMessageW        = moduser32.NewProc("PeekMessageW")
	procTranslateMessage    = moduser32.NewProc("TranslateMessage")
	procDispatchMessageW    = moduser32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = moduser32.NewProc("PostThreadMessageW")
)

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// The callback trampolines are created once and kept alive for the process
// lifetime; syscall.NewCallback allocations are never released.
var (
	hookProcOnce  sync.Once
	keyboardProcP uintptr
	mouseProcP    uintptr
)

func hookProcFor(t HidType) uintptr {
	hookProcOnce.Do(func() {
		keyboardProcP = syscall.NewCallback(keyboardHookProc)
		mouseProcP = syscall.NewCallback(mouseHookProc)
	})
	if t == Keyboard {
		return keyboardProcP
	}
	return mouseProcP
}

func hookIDFor(t HidType) uintptr {
	if t == Keyboard {
		return whKeyboardLL
	}
	return whMouseLL
}

// keyboardHookProc is the single OS-callable entry point for keyboard
// events. Negative codes mean the event is not for processing and must be
// forwarded without touching the registry; everything else is fanned out
// and then forwarded unconditionally. dispatch contains callback panics,
// so the forwarding call below always runs.
func keyboardHookProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		dispatch(Keyboard, int32(nCode), wParam, lParam)
	}
	return callNextHook(nCode, wParam, lParam)
}

func mouseHookProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		dispatch(Mouse, int32(nCode), wParam, lParam)
	}
	return callNextHook(nCode, wParam, lParam)
}

func callNextHook(nCode, wParam, lParam uintptr) uintptr {
	// First argument (the hook handle) is ignored on modern Windows.
	next, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return next
}

// windowsHook is the HookToken for an installed Windows hook.
type windowsHook struct {
	hid    HidType
	handle uintptr
}

type windowsInstaller struct{}

func newPlatformInstaller(deviceGlobs []string) Installer {
	// Low-level hooks are global; there is no per-device selection.
	return windowsInstaller{}
}

// Install installs the low-level hook for t bound to t's fixed trampoline.
func (windowsInstaller) Install(t HidType) (HookToken, error) {
	if err := claimHook(t); err != nil {
		return nil, err
	}
	// hMod and dwThreadId are zero: low-level hooks are global and run in
	// the installing process.
	h, _, callErr := procSetWindowsHookExW.Call(hookIDFor(t), hookProcFor(t), 0, 0)
	if h == 0 {
		releaseHook(t)
		return nil, fmt.Errorf("SetWindowsHookExW(%s): %w", t, callErr)
	}
	return windowsHook{hid: t, handle: h}, nil
}

// Uninstall removes the hook. The process-wide slot is released even when
// the OS call fails: the caller's bookkeeping has already advanced and a
// wedged slot would make the failure permanent.
func (windowsInstaller) Uninstall(tok HookToken) error {
	wh, ok := tok.(windowsHook)
	if !ok {
		panic(fmt.Sprintf("hidmon: foreign hook token %T", tok))
	}
	r, _, callErr := procUnhookWindowsHookEx.Call(wh.handle)
	releaseHook(wh.hid)
	if r == 0 {
		return fmt.Errorf("UnhookWindowsHookEx(%s): %w", wh.hid, callErr)
	}
	return nil
}

// MessageLoop runs a minimal Windows message pump and returns when a
// WM_QUIT message is received.
//
// Low-level hooks are only invoked while the installing thread pumps
// messages, so after Enable something must run this loop (or an
// application-owned equivalent) on that same thread. Lock the goroutine to
// its OS thread first:
//
//	runtime.LockOSThread()
//	tid := windows.GetCurrentThreadId()
//	if err := m.Enable(hidmon.Keyboard); err != nil { ... }
//	hidmon.MessageLoop()
//
// Another goroutine stops the pump with QuitMessageLoop(tid).
func MessageLoop() {
	var m msg
	for {
		// GetMessageW returns 0 for WM_QUIT and -1 on error; both end
		// the pump.
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// PumpWaitingMessages drains every message currently queued on the calling
// thread without blocking. It returns false once WM_QUIT is seen.
//
// This is the non-blocking alternative to MessageLoop for callers that
// interleave message pumping with other work on the hook thread.
func PumpWaitingMessages() bool {
	const pmRemove = 0x0001
	var m msg
	for {
		r, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if r == 0 {
			return true
		}
		if m.Message == wmQuit {
			return false
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// QuitMessageLoop posts WM_QUIT to the message queue of the given thread,
// ending a MessageLoop running there.
func QuitMessageLoop(threadID uint32) error {
	r, _, callErr := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if r == 0 {
		return fmt.Errorf("PostThreadMessageW: %w", callErr)
	}
	return nil
}
