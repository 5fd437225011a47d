//go:build linux

package lockwatch

import (
	"log/slog"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func newForwardWatcher(buffer int) *linuxWatcher {
	return &linuxWatcher{
		logger:  slog.Default(),
		signals: make(chan *dbus.Signal, 16),
		events:  make(chan Event, buffer),
	}
}

func lockSignal(locked bool) *dbus.Signal {
	return &dbus.Signal{
		Name: "org.freedesktop.ScreenSaver.ActiveChanged",
		Body: []interface{}{locked},
	}
}

func collectEvents(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var got []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-time.After(time.Second):
			t.Fatal("event channel not closed")
		}
	}
}

func TestForwardLoopTranslatesSignals(t *testing.T) {
	w := newForwardWatcher(4)
	go w.forwardLoop()

	w.signals <- lockSignal(true)
	w.signals <- lockSignal(false)
	close(w.signals)

	got := collectEvents(t, w.events)
	if len(got) != 2 || !got[0].Locked || got[1].Locked {
		t.Fatalf("got %+v, want [locked unlocked]", got)
	}
}

func TestForwardLoopIgnoresMalformedSignals(t *testing.T) {
	w := newForwardWatcher(4)
	go w.forwardLoop()

	w.signals <- &dbus.Signal{Body: []interface{}{}}
	w.signals <- &dbus.Signal{Body: []interface{}{"locked"}}
	w.signals <- lockSignal(true)
	close(w.signals)

	got := collectEvents(t, w.events)
	if len(got) != 1 || !got[0].Locked {
		t.Fatalf("got %+v, want one locked event", got)
	}
}

// TestForwardLoopKeepsNewestOnFullBuffer fills the event buffer without a
// consumer and checks that the latest transition survives. A stale lock
// must not shadow the unlock that follows it.
func TestForwardLoopKeepsNewestOnFullBuffer(t *testing.T) {
	w := newForwardWatcher(1)
	go w.forwardLoop()

	w.signals <- lockSignal(true)
	w.signals <- lockSignal(false)
	close(w.signals)

	got := collectEvents(t, w.events)
	if len(got) == 0 {
		t.Fatal("no events delivered")
	}
	if last := got[len(got)-1]; last.Locked {
		t.Fatalf("latest event is %+v, want the unlock", last)
	}
}
