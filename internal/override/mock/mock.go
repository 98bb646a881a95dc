// Package mock provides an in-memory mock implementation of [override.Host]
// for use in unit tests.
//
// The mock records every registration and can replay the host's load path
// through [Host.Load]. It is safe for concurrent use.
//
// Example:
//
//	h := &mock.Host{}
//	_, err := eng.Bootstrap(ctx, h)
//	data, ok := h.Load(h.Registrations()[0].Hash)
package mock

import (
	"sync"

	"github.com/MrWong99/voiceselect/internal/override"
)

// Compile-time interface assertion.
var _ override.Host = (*Host)(nil)

// Registration records the arguments of a single [Host.RegisterOverride] call.
type Registration struct {
	// Hash is the registered content hash.
	Hash uint64
	// MaxSize is the buffer size requested for Hash.
	MaxSize int
	// Callback is the function the host calls when loading Hash.
	Callback override.Callback
}

// Host is a mock implementation of [override.Host].
type Host struct {
	mu sync.Mutex

	// RegisterError is returned by [Host.RegisterOverride] when non-nil.
	RegisterError error

	registrations []Registration
}

// RegisterOverride implements [override.Host].
func (h *Host) RegisterOverride(hash uint64, maxSize int, cb override.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.RegisterError != nil {
		return h.RegisterError
	}
	h.registrations = append(h.registrations, Registration{Hash: hash, MaxSize: maxSize, Callback: cb})
	return nil
}

// Registrations returns a copy of all successful registrations in call order.
func (h *Host) Registrations() []Registration {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Registration, len(h.registrations))
	copy(out, h.registrations)
	return out
}

// Lookup returns the registration of hash.
func (h *Host) Lookup(hash uint64) (Registration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.registrations {
		if r.Hash == hash {
			return r, true
		}
	}
	return Registration{}, false
}

// Load simulates the host loading hash: it allocates the registered buffer,
// invokes the callback and returns the filled prefix. ok is false when hash
// was not registered or the callback declined.
func (h *Host) Load(hash uint64) (data []byte, ok bool) {
	r, found := h.Lookup(hash)
	if !found {
		return nil, false
	}
	buf := make([]byte, r.MaxSize)
	n, ok := r.Callback(hash, buf)
	if !ok {
		return nil, false
	}
	return buf[:n], true
}
