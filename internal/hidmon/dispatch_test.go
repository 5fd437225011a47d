package hidmon

import (
	"sync"
	"sync/atomic"
	"testing"
)

// =============================================================================
// Tests for trampoline dispatch
// =============================================================================

func TestDispatchInvokesEveryCallback(t *testing.T) {
	var a, b atomic.Int64
	regA := register(Keyboard, CallbackFunc(func(int32, uintptr, uintptr) { a.Add(1) }))
	defer regA.Close()
	regB := register(Keyboard, CallbackFunc(func(int32, uintptr, uintptr) { b.Add(1) }))
	defer regB.Close()

	dispatch(Keyboard, 0, 1, 2)
	dispatch(Keyboard, 0, 3, 4)

	if a.Load() != 2 || b.Load() != 2 {
		t.Errorf("expected both callbacks invoked twice, got a=%d b=%d", a.Load(), b.Load())
	}
}

func TestDispatchPassesEventThrough(t *testing.T) {
	type event struct {
		code           int32
		wparam, lparam uintptr
	}
	var mu sync.Mutex
	var got []event

	reg := register(Mouse, CallbackFunc(func(code int32, w, l uintptr) {
		mu.Lock()
		got = append(got, event{code, w, l})
		mu.Unlock()
	}))
	defer reg.Close()

	dispatch(Mouse, 0, 0x200, 0xdeadbeef)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].code != 0 || got[0].wparam != 0x200 || got[0].lparam != 0xdeadbeef {
		t.Errorf("event payload mangled: %+v", got[0])
	}
}

func TestDispatchEmptyRegistryIsNotAnError(t *testing.T) {
	// Must neither panic nor fault with nobody registered.
	dispatch(Keyboard, 0, 0, 0)
	dispatch(Mouse, 0, 0, 0)
}

func TestDispatchContainsCallbackPanic(t *testing.T) {
	var after atomic.Int64

	panicker := register(Keyboard, CallbackFunc(func(int32, uintptr, uintptr) {
		panic("callback blew up")
	}))
	defer panicker.Close()
	survivor := register(Keyboard, CallbackFunc(func(int32, uintptr, uintptr) { after.Add(1) }))
	defer survivor.Close()

	// A panicking callback must not escape dispatch: on a real hook that
	// would tear down OS input processing mid-chain.
	dispatch(Keyboard, 0, 0, 0)

	if after.Load() != 1 {
		t.Errorf("surviving callback not invoked after sibling panic, count=%d", after.Load())
	}
}

func TestDispatchConcurrentWithRegistryMutation(t *testing.T) {
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				reg := register(Mouse, nopCallback())
				reg.Close()
			}
		}
	}()

	for i := 0; i < 500; i++ {
		dispatch(Mouse, 0, uintptr(i), 0)
	}
	close(stop)
	wg.Wait()
}
