package override

import (
	"maps"
	"sync"

	"github.com/MrWong99/voiceselect/internal/variant"
)

// SelectionStore holds the variant chosen for each roster entity. It is safe
// for concurrent use. The zero value is ready to use.
type SelectionStore struct {
	mu       sync.RWMutex
	selected map[string]variant.Variant
}

// NewSelectionStore returns an empty [SelectionStore].
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{selected: make(map[string]variant.Variant)}
}

// Init adds every entity not yet present with [variant.Default]. Existing
// selections are kept.
func (s *SelectionStore) Init(entities []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		s.selected = make(map[string]variant.Variant, len(entities))
	}
	for _, id := range entities {
		if _, ok := s.selected[id]; !ok {
			s.selected[id] = variant.Default
		}
	}
}

// Get returns the selection of entity.
func (s *SelectionStore) Get(entity string) (variant.Variant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.selected[entity]
	return v, ok
}

// Set replaces the selection of entity. Entities that were never initialised
// are rejected with false.
func (s *SelectionStore) Set(entity string, v variant.Variant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.selected[entity]; !ok {
		return false
	}
	s.selected[entity] = v
	return true
}

// Snapshot returns a copy of all selections.
func (s *SelectionStore) Snapshot() map[string]variant.Variant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.selected)
}
