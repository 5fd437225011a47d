package hidmon

import (
	"math/rand/v2"
	"sync"
)

// registry is the process-wide table of live callbacks for one HidType.
// Keys are random 64-bit values, unique within the table only while the
// registration is live; a key may be reused after removal. The map is
// only ever mutated under mu.
type registry struct {
	mu      sync.Mutex
	entries map[uint64]Callback
}

// global registries, one per HidType. Created lazily on first access and
// never torn down; their lifetime is the lifetime of the process, which is
// what a hook trampoline invoked by the OS requires.
var (
	registriesOnce sync.Once
	registries     [numHidTypes]*registry
)

func registryFor(t HidType) *registry {
	registriesOnce.Do(func() {
		for i := range registries {
			registries[i] = &registry{entries: make(map[uint64]Callback)}
		}
	})
	return registries[t]
}

// insert stores cb under a fresh random key and returns the key. Collisions
// are resolved by resampling; with 64-bit keys and registration counts that
// are small in practice, the retry loop terminating is not a concern.
func (r *registry) insert(cb Callback) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		key := rand.Uint64()
		if _, occupied := r.entries[key]; !occupied {
			r.entries[key] = cb
			return key
		}
	}
}

// remove deletes the entry for key. Removing an absent key is a no-op so
// that a registration racing a wholesale clear never faults.
func (r *registry) remove(key uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// snapshot copies the live callbacks out under the lock. Dispatch iterates
// the copy so arbitrary application code never runs while the registry
// mutex is held.
func (r *registry) snapshot() []Callback {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	cbs := make([]Callback, 0, len(r.entries))
	for _, cb := range r.entries {
		cbs = append(cbs, cb)
	}
	return cbs
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Registration represents one live entry in a callback registry. It is
// created by Monitor after a successful insert and is the only path by
// which that entry leaves the registry again.
type Registration struct {
	hid  HidType
	key  uint64
	once sync.Once
}

func register(t HidType, cb Callback) *Registration {
	key := registryFor(t).insert(cb)
	return &Registration{hid: t, key: key}
}

// Close removes the registration from its registry. Closing more than once
// is a no-op.
func (g *Registration) Close() {
	g.once.Do(func() {
		registryFor(g.hid).remove(g.key)
	})
}
