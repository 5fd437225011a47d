//go:build linux

package lockwatch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

// linuxWatcher listens for screensaver ActiveChanged signals on the
// session bus. Both the freedesktop interface and the GNOME variant are
// matched; desktops emit one or the other.
type linuxWatcher struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	events  chan Event
	signals chan *dbus.Signal
	logger  *slog.Logger
	started bool
}

func newPlatformWatcher() Watcher {
	return &linuxWatcher{
		logger: slog.Default().With("component", "lockwatch"),
	}
}

var screensaverInterfaces = []struct {
	iface  string
	member string
}{
	{"org.freedesktop.ScreenSaver", "ActiveChanged"},
	{"org.gnome.ScreenSaver", "ActiveChanged"},
}

func (w *linuxWatcher) Start() (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil, fmt.Errorf("lockwatch: already started")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}

	for _, sig := range screensaverInterfaces {
		err := conn.AddMatchSignal(
			dbus.WithMatchInterface(sig.iface),
			dbus.WithMatchMember(sig.member),
		)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("add match for %s: %w", sig.iface, err)
		}
	}

	w.conn = conn
	w.signals = make(chan *dbus.Signal, 16)
	w.events = make(chan Event, 4)
	w.started = true
	conn.Signal(w.signals)

	go w.forwardLoop()
	return w.events, nil
}

// forwardLoop translates raw bus signals into Events. It exits when the
// signal channel is closed by the connection shutting down.
func (w *linuxWatcher) forwardLoop() {
	defer close(w.events)

	for sig := range w.signals {
		if len(sig.Body) != 1 {
			continue
		}
		locked, ok := sig.Body[0].(bool)
		if !ok {
			continue
		}
		w.logger.Debug("session lock transition", "locked", locked)
		select {
		case w.events <- Event{Locked: locked}:
		default:
			// Full buffer: evict a stale transition so the consumer
			// always sees the latest state. Dropping the new event
			// instead could leave a lock or unlock unobserved.
			select {
			case <-w.events:
			default:
			}
			select {
			case w.events <- Event{Locked: locked}:
			default:
			}
		}
	}
}

func (w *linuxWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return nil
	}
	w.started = false
	return w.conn.Close()
}
