package hidmon

import (
	"fmt"
	"log/slog"
	"sync"
)

// hookState is the per-(Monitor, HidType) record: the OS hook token and
// the registrations currently live for this Monitor. Registrations may be
// non-empty only while the token is valid.
type hookState struct {
	token HookToken
	regs  []*Registration
}

func (h *hookState) installed() bool { return h.token != nil }

// attach and detach enforce the hook lifecycle preconditions. Violations
// indicate a logic error inside Monitor itself, not an environmental
// condition, so they panic rather than return an error.
func (h *hookState) attach(tok HookToken) {
	if h.token != nil {
		panic("hidmon: hook installed twice without uninstall")
	}
	if tok == nil {
		panic("hidmon: attaching nil hook token")
	}
	h.token = tok
}

func (h *hookState) detach() HookToken {
	if h.token == nil {
		panic("hidmon: uninstalling a hook that is not installed")
	}
	tok := h.token
	h.token = nil
	return tok
}

// dropRegistrations closes every live registration. Each Close is
// independent and idempotent.
func (h *hookState) dropRegistrations() {
	for _, reg := range h.regs {
		reg.Close()
	}
	h.regs = nil
}

// Monitor observes system-wide HID events. Each Monitor holds, per device
// type, a set of known callbacks and an installed/uninstalled hook state.
// Known callbacks become live (registered into the process-wide registry,
// and therefore invoked by the trampoline) while the type is enabled.
//
// A Monitor is safe for concurrent use, but its methods must not be called
// from inside a running callback.
//
// Monitors start with no hooks installed and no callbacks:
//
//	m := hidmon.New()
//	m.AddCallback(hidmon.Mouse, hidmon.CallbackFunc(func(code int32, w, l uintptr) {
//		// ...
//	}))
//	if err := m.Enable(hidmon.Mouse); err != nil {
//		// ...
//	}
//	defer m.Close()
//
// On Windows a message pump must be running on the enabling thread for
// events to be delivered at all; see MessageLoop.
type Monitor struct {
	mu        sync.Mutex
	installer Installer
	logger    *slog.Logger
	hooks     [numHidTypes]hookState
	known     [numHidTypes][]Callback
}

// New creates a Monitor backed by the platform hook facility.
func New() *Monitor {
	return NewWith(newPlatformInstaller(nil))
}

// NewWith creates a Monitor backed by the given installer.
func NewWith(inst Installer) *Monitor {
	return &Monitor{
		installer: inst,
		logger:    slog.Default().With("component", "hidmon"),
	}
}

// Enable installs the OS hook for t and activates every callback this
// Monitor knows for t. Enabling an already enabled type is a no-op.
//
// Only one hook per device type may be installed process-wide; a second
// Monitor enabling the same type gets ErrAlreadyInstalled and is left
// unchanged.
func (m *Monitor) Enable(t HidType) error {
	mustValid(t)
	m.mu.Lock()
	defer m.mu.Unlock()

	hs := &m.hooks[t]
	if hs.installed() {
		return nil
	}

	tok, err := m.installer.Install(t)
	if err != nil {
		return fmt.Errorf("enable %s: %w", t, err)
	}
	hs.attach(tok)

	for _, cb := range m.known[t] {
		hs.regs = append(hs.regs, register(t, cb))
	}

	m.logger.Info("hid monitoring enabled", "hid_type", t.String(), "callbacks", len(hs.regs))
	return nil
}

// Disable deactivates this Monitor's callbacks for t and uninstalls the OS
// hook. Disabling an already disabled type is a no-op.
//
// If the OS uninstall fails the error is returned, but the callbacks are
// already deactivated and the Monitor still considers the hook removed, so
// a later Enable attempts a fresh install rather than wedging.
func (m *Monitor) Disable(t HidType) error {
	mustValid(t)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disableLocked(t)
}

func (m *Monitor) disableLocked(t HidType) error {
	hs := &m.hooks[t]
	if !hs.installed() {
		return nil
	}

	hs.dropRegistrations()
	tok := hs.detach()
	if err := m.installer.Uninstall(tok); err != nil {
		return fmt.Errorf("disable %s: %w", t, err)
	}

	m.logger.Info("hid monitoring disabled", "hid_type", t.String())
	return nil
}

// AddCallback adds cb to the callbacks this Monitor knows for t. If t is
// currently enabled, cb is activated immediately and sees the next event;
// otherwise it becomes live on the next Enable.
func (m *Monitor) AddCallback(t HidType, cb Callback) {
	mustValid(t)
	if cb == nil {
		panic("hidmon: nil callback")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.known[t] = append(m.known[t], cb)
	hs := &m.hooks[t]
	if hs.installed() {
		hs.regs = append(hs.regs, register(t, cb))
	}
}

// ClearCallbacks deactivates and forgets every callback this Monitor
// knows for t. The hook state is left unchanged: an enabled type stays
// enabled and simply dispatches to nobody.
func (m *Monitor) ClearCallbacks(t HidType) {
	mustValid(t)
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks[t].dropRegistrations()
	m.known[t] = nil
}

// Enabled reports whether the hook for t is currently installed by this
// Monitor.
func (m *Monitor) Enabled(t HidType) bool {
	mustValid(t)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hooks[t].installed()
}

// Close disables every device type. Teardown is best effort: uninstall
// errors are logged and swallowed so Close is always safe to defer.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t := HidType(0); t < numHidTypes; t++ {
		if err := m.disableLocked(t); err != nil {
			m.logger.Warn("teardown uninstall failed", "hid_type", t.String(), "error", err)
		}
	}
}

func mustValid(t HidType) {
	if !t.Valid() {
		panic(fmt.Sprintf("hidmon: invalid hid type %d", int(t)))
	}
}
