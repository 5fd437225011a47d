// Package hidmon provides system-wide monitoring of human-interface-device
// (keyboard, mouse) events.
//
// The operating system exposes at most one low-level hook per device type
// per process, and that hook is a single C-style function pointer. This
// package multiplexes that single slot: applications register any number of
// callbacks with a Monitor, and a fixed per-type trampoline fans each OS
// event out to every live callback before deferring to the OS default chain.
//
// IMPORTANT: This package observes events - it does NOT suppress or consume
// them. Every registered callback sees every event, and the event is always
// forwarded to the rest of the OS hook chain.
//
// Platform support:
//   - Windows: SetWindowsHookEx with WH_KEYBOARD_LL / WH_MOUSE_LL. A message
//     pump MUST be running on the installing thread (see MessageLoop).
//   - Linux: /dev/input/event* readers (requires 'input' group or root).
package hidmon

import "errors"

// HidType selects which class of human-interface device an operation
// targets.
type HidType int

// Supported device types.
const (
	// Keyboard monitors key press and release events.
	Keyboard HidType = iota
	// Mouse monitors mouse movement and button events.
	Mouse

	numHidTypes
)

// String returns the name of the device type.
func (t HidType) String() string {
	switch t {
	case Keyboard:
		return "keyboard"
	case Mouse:
		return "mouse"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known device type.
func (t HidType) Valid() bool {
	return t >= 0 && t < numHidTypes
}

// ParseHidType parses a device type name as produced by String.
func ParseHidType(s string) (HidType, error) {
	switch s {
	case "keyboard":
		return Keyboard, nil
	case "mouse":
		return Mouse, nil
	default:
		return 0, errors.New("unknown hid type: " + s)
	}
}

// Callback receives HID events. The event code classifies the event; the
// two words carry the device-specific payload and are passed through
// opaquely (on Windows they are the hook procedure's wParam and lParam).
//
// Callbacks run on a thread chosen by the event source, never on the
// thread that registered them. A single callback is never invoked
// concurrently with itself within one dispatch, but callbacks that keep
// internal state shared with other goroutines must lock it themselves.
// Callbacks must not call back into Monitor or registry operations.
type Callback interface {
	Invoke(code int32, wparam, lparam uintptr)
}

// CallbackFunc adapts an ordinary function to the Callback interface.
type CallbackFunc func(code int32, wparam, lparam uintptr)

// Invoke calls f.
func (f CallbackFunc) Invoke(code int32, wparam, lparam uintptr) {
	f(code, wparam, lparam)
}

// ErrAlreadyInstalled is returned by Enable when a hook of the same device
// type is already installed somewhere in this process. Only one hook per
// HidType may be live process-wide; disable the other Monitor first.
var ErrAlreadyInstalled = errors.New("hook already installed for this hid type")

// ErrNotSupported is returned on platforms without a hook implementation.
var ErrNotSupported = errors.New("hid monitoring not supported on this platform")
