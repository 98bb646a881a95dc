// Package mock provides an in-memory mock implementation of [surface.Surface]
// for use in unit tests.
//
// Example:
//
//	s := &mock.Surface{Result: surface.Result{LastURL: "http://localhost/mario%3DjpCSK_SPLIT"}}
//	ctrl := surface.NewController(eng, s)
//	ctrl.Show(ctx)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voiceselect/internal/surface"
)

// Compile-time interface assertion.
var _ surface.Surface = (*Surface)(nil)

// Surface is a mock implementation of [surface.Surface]. Result and Error
// control the return values; every shown page is recorded.
type Surface struct {
	mu sync.Mutex

	// Result is returned by [Surface.Show].
	Result surface.Result

	// Error is returned by [Surface.Show] when non-nil.
	Error error

	pages []surface.Page
}

// Show implements [surface.Surface].
func (s *Surface) Show(_ context.Context, page surface.Page) (surface.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, page)
	if s.Error != nil {
		return surface.Result{}, s.Error
	}
	return s.Result, nil
}

// Pages returns a copy of every page passed to Show.
func (s *Surface) Pages() []surface.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]surface.Page, len(s.pages))
	copy(out, s.pages)
	return out
}
