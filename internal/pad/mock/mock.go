// Package mock provides an in-memory mock implementation of [pad.Query] for
// use in unit tests.
//
// States are set per controller; unset controllers read as the zero state.
// It is safe for concurrent use.
//
// Example:
//
//	q := &mock.Query{}
//	q.SetSlot(2, pad.State{Buttons: pad.ButtonL | pad.ButtonR})
//	src, ok := pad.Detect(ctx, q, pad.DefaultChord, 8)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voiceselect/internal/pad"
)

// Compile-time interface assertion.
var _ pad.Query = (*Query)(nil)

// Query is a mock implementation of [pad.Query].
type Query struct {
	mu sync.Mutex

	// HandheldError is returned by [Query.Handheld] when non-nil.
	HandheldError error

	// FullKeyError is returned by [Query.FullKey] when non-nil.
	FullKeyError error

	handheld pad.State
	slots    map[int]pad.State

	handheldCalls int
	fullKeyCalls  []int
}

// SetHandheld sets the state returned by [Query.Handheld].
func (q *Query) SetHandheld(s pad.State) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handheld = s
}

// SetSlot sets the state returned by [Query.FullKey] for slot.
func (q *Query) SetSlot(slot int, s pad.State) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.slots == nil {
		q.slots = make(map[int]pad.State)
	}
	q.slots[slot] = s
}

// Handheld implements [pad.Query].
func (q *Query) Handheld(context.Context) (pad.State, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handheldCalls++
	if q.HandheldError != nil {
		return pad.State{}, q.HandheldError
	}
	return q.handheld, nil
}

// FullKey implements [pad.Query].
func (q *Query) FullKey(_ context.Context, slot int) (pad.State, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fullKeyCalls = append(q.fullKeyCalls, slot)
	if q.FullKeyError != nil {
		return pad.State{}, q.FullKeyError
	}
	return q.slots[slot], nil
}

// HandheldCalls returns how often Handheld was called.
func (q *Query) HandheldCalls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handheldCalls
}

// FullKeyCalls returns the slots passed to FullKey in call order.
func (q *Query) FullKeyCalls() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]int, len(q.fullKeyCalls))
	copy(out, q.fullKeyCalls)
	return out
}
