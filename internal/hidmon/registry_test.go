package hidmon

import (
	"sync"
	"testing"
)

// =============================================================================
// Tests for the callback registry
// =============================================================================

func nopCallback() Callback {
	return CallbackFunc(func(int32, uintptr, uintptr) {})
}

func TestRegistryInsertUniqueKeys(t *testing.T) {
	r := &registry{entries: make(map[uint64]Callback)}

	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		key := r.insert(nopCallback())
		if seen[key] {
			t.Fatalf("duplicate key %#x handed out while still live", key)
		}
		seen[key] = true
	}

	if r.size() != 1000 {
		t.Errorf("expected 1000 entries, got %d", r.size())
	}
}

func TestRegistryRemoveAbsentKeyIsNoop(t *testing.T) {
	r := &registry{entries: make(map[uint64]Callback)}

	key := r.insert(nopCallback())
	r.remove(key)
	// Double removal must not fault or disturb other entries.
	other := r.insert(nopCallback())
	r.remove(key)

	if r.size() != 1 {
		t.Errorf("expected 1 entry after double remove, got %d", r.size())
	}
	r.remove(other)
	if r.size() != 0 {
		t.Errorf("expected empty registry, got %d entries", r.size())
	}
}

func TestRegistrySnapshotEmpty(t *testing.T) {
	r := &registry{entries: make(map[uint64]Callback)}
	if cbs := r.snapshot(); cbs != nil {
		t.Errorf("expected nil snapshot of empty registry, got %d entries", len(cbs))
	}
}

func TestRegistryConcurrentInsertRemove(t *testing.T) {
	r := &registry{entries: make(map[uint64]Callback)}
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := r.insert(nopCallback())
				r.snapshot()
				r.remove(key)
			}
		}()
	}
	wg.Wait()

	if r.size() != 0 {
		t.Errorf("expected empty registry after balanced insert/remove, got %d", r.size())
	}
}

// =============================================================================
// Tests for Registration
// =============================================================================

func TestRegistrationCloseRemovesEntry(t *testing.T) {
	before := registryFor(Keyboard).size()

	reg := register(Keyboard, nopCallback())
	if got := registryFor(Keyboard).size(); got != before+1 {
		t.Fatalf("expected %d entries after register, got %d", before+1, got)
	}

	reg.Close()
	if got := registryFor(Keyboard).size(); got != before {
		t.Errorf("expected %d entries after Close, got %d", before, got)
	}
}

func TestRegistrationCloseIdempotent(t *testing.T) {
	before := registryFor(Mouse).size()

	reg := register(Mouse, nopCallback())
	reg.Close()
	reg.Close()
	reg.Close()

	if got := registryFor(Mouse).size(); got != before {
		t.Errorf("expected %d entries after repeated Close, got %d", before, got)
	}
}

func TestRegistriesArePerType(t *testing.T) {
	kb := registryFor(Keyboard).size()
	ms := registryFor(Mouse).size()

	reg := register(Keyboard, nopCallback())
	defer reg.Close()

	if got := registryFor(Mouse).size(); got != ms {
		t.Errorf("keyboard registration leaked into mouse registry (%d -> %d)", ms, got)
	}
	if got := registryFor(Keyboard).size(); got != kb+1 {
		t.Errorf("expected keyboard registry to grow by one (%d -> %d)", kb, got)
	}
}
