//go:build !linux

package lockwatch

type stubWatcher struct{}

func newPlatformWatcher() Watcher {
	return stubWatcher{}
}

func (stubWatcher) Start() (<-chan Event, error) {
	return nil, ErrNotAvailable
}

func (stubWatcher) Close() error {
	return nil
}
