package hidmon

import (
	"fmt"
	"sync"
)

// HookToken is an opaque handle to one installed OS hook. A nil token
// means no hook is installed. Tokens are produced by an Installer and must
// be returned to the same Installer for uninstallation.
type HookToken any

// Installer is the boundary to the OS hook facility. Implementations are
// process-wide: a second Install for a HidType that already has a live
// hook anywhere in the process fails with ErrAlreadyInstalled.
type Installer interface {
	// Install installs the OS hook for t bound to the fixed trampoline
	// for that type and returns its token.
	Install(t HidType) (HookToken, error)

	// Uninstall removes a previously installed hook.
	Uninstall(tok HookToken) error
}

// NewInstaller returns the platform hook installer. deviceGlobs restricts
// which input device nodes are opened on Linux; other platforms ignore it.
func NewInstaller(deviceGlobs []string) Installer {
	return newPlatformInstaller(deviceGlobs)
}

// Process-wide install bookkeeping shared by the platform installers. The
// OS allows strange states here (Windows will happily stack several
// low-level hooks in one process); we enforce the stricter one-per-type
// policy ourselves so Monitors cannot silently shadow each other.
var (
	hookMu   sync.Mutex
	hookLive [numHidTypes]bool
)

func claimHook(t HidType) error {
	hookMu.Lock()
	defer hookMu.Unlock()
	if hookLive[t] {
		return fmt.Errorf("%s: %w", t, ErrAlreadyInstalled)
	}
	hookLive[t] = true
	return nil
}

func releaseHook(t HidType) {
	hookMu.Lock()
	defer hookMu.Unlock()
	hookLive[t] = false
}
