//go:build !windows && !linux

package hidmon

// Stub installer for platforms without a hook implementation.

type stubInstaller struct{}

func newPlatformInstaller(deviceGlobs []string) Installer {
	return stubInstaller{}
}

func (stubInstaller) Install(t HidType) (HookToken, error) {
	return nil, ErrNotSupported
}

func (stubInstaller) Uninstall(tok HookToken) error {
	return nil
}
