package override

import (
	"maps"
	"slices"
	"sync"

	"github.com/MrWong99/voiceselect/internal/variant"
)

// Registry maps intercepted hashes to their [Entry]. It is safe for
// concurrent use. The zero value is ready to use.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint64]Entry
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]Entry)}
}

// Install adds e under hash. It returns [ErrDuplicateHash] when hash is
// already registered.
func (r *Registry) Install(hash uint64, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[uint64]Entry)
	}
	if _, exists := r.entries[hash]; exists {
		return ErrDuplicateHash
	}
	r.entries[hash] = e
	return nil
}

// Get returns a copy of the entry registered under hash.
func (r *Registry) Get(hash uint64) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[hash]
	return e, ok
}

// SetSelectedFor updates the selected variant of hash when its entry belongs
// to entity. It reports false when hash is not registered or is owned by
// another entity.
func (r *Registry) SetSelectedFor(hash uint64, entity string, v variant.Variant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[hash]
	if !ok || e.Entity != entity {
		return false
	}
	e.Selected = v
	r.entries[hash] = e
	return true
}

// Len returns the number of registered hashes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Hashes returns every registered hash in ascending order.
func (r *Registry) Hashes() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}
