// Package lockwatch reports desktop session lock and unlock transitions.
//
// hidmond uses it to pause HID monitoring while the session is locked:
// nobody is at the keyboard, and counting lock-screen key presses would
// skew the session statistics.
//
// Only Linux (via the session D-Bus) is implemented; other platforms
// report ErrNotAvailable.
package lockwatch

import "errors"

// Event is one lock-state transition.
type Event struct {
	// Locked is true when the session just locked, false when it
	// unlocked.
	Locked bool
}

// Watcher delivers session lock transitions.
type Watcher interface {
	// Start begins watching. Events arrive on the returned channel
	// until Close. The channel is closed on Close or on watcher failure.
	Start() (<-chan Event, error)

	// Close stops watching and releases resources.
	Close() error
}

// ErrNotAvailable is returned when session lock watching is not available
// on this platform or environment.
var ErrNotAvailable = errors.New("session lock watching not available")

// New creates a Watcher for the current platform.
func New() Watcher {
	return newPlatformWatcher()
}
