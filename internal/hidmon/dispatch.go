package hidmon

import "log/slog"

// dispatch fans a single OS event out to every live callback for t.
//
// This is the body of the per-type hook trampoline. The platform hook
// procedure handles the "do not process" fast path (negative event codes)
// before calling here, and forwards to the next hook in the OS chain after
// this returns. dispatch never panics: a fault inside one callback is
// contained so the remaining callbacks still run and the caller's
// forwarding call always executes. A panic escaping a Windows hook
// procedure would corrupt input processing machine-wide.
//
// Callback order is unspecified; it follows map iteration order of the
// snapshot.
func dispatch(t HidType, code int32, wparam, lparam uintptr) {
	cbs := registryFor(t).snapshot()
	if len(cbs) == 0 {
		// An installed hook with zero callbacks is valid; there is
		// simply nobody to tell.
		slog.Debug("hid event with no registered callbacks", "hid_type", t.String())
		return
	}
	for _, cb := range cbs {
		invokeOne(t, cb, code, wparam, lparam)
	}
}

func invokeOne(t HidType, cb Callback, code int32, wparam, lparam uintptr) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("hid callback panicked",
				"hid_type", t.String(),
				"code", code,
				"panic", r,
			)
		}
	}()
	cb.Invoke(code, wparam, lparam)
}
