// Package wsfeed implements [pad.Query] over a WebSocket connection from a
// companion process that forwards controller state.
//
// Each text frame carries one [Frame] as JSON:
//
//	{"slot": -1, "update_count": 42, "buttons": 768, "l_stick": {"x": 0, "y": 0}, "r_stick": {"x": 0, "y": 0}, "flags": 1}
//
// Slot -1 is the handheld controller; 0..7 are full-key slots. The latest
// frame per slot wins. When a connection closes, the slots it wrote last
// read as zero state again.
package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/MrWong99/voiceselect/internal/pad"
)

// MaxSlot is the highest accepted full-key slot.
const MaxSlot = 7

// Frame is one controller update.
type Frame struct {
	Slot int `json:"slot"`
	pad.State
}

// Compile-time interface assertions.
var (
	_ pad.Query    = (*Feed)(nil)
	_ http.Handler = (*Feed)(nil)
)

// Feed collects frames from WebSocket clients. Construct with [New].
type Feed struct {
	originPatterns []string

	conns atomic.Uint64

	mu     sync.RWMutex
	states map[int]slotState
}

// slotState is the latest frame of a slot and the connection that sent it.
type slotState struct {
	conn  uint64
	state pad.State
}

// Option configures a [Feed].
type Option func(*Feed)

// WithOriginPatterns allows cross-origin clients matching patterns. See
// [websocket.AcceptOptions].
func WithOriginPatterns(patterns ...string) Option {
	return func(f *Feed) { f.originPatterns = patterns }
}

// New returns an empty Feed.
func New(opts ...Option) *Feed {
	f := &Feed{states: make(map[int]slotState)}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Handheld implements [pad.Query].
func (f *Feed) Handheld(ctx context.Context) (pad.State, error) {
	return f.get(int(pad.HandheldSource)), nil
}

// FullKey implements [pad.Query].
func (f *Feed) FullKey(ctx context.Context, slot int) (pad.State, error) {
	return f.get(slot), nil
}

func (f *Feed) get(slot int) pad.State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.states[slot].state
}

// ServeHTTP upgrades the request and reads frames until the client
// disconnects or the request context ends.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: f.originPatterns,
	})
	if err != nil {
		slog.Warn("pad feed: accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	remote := r.RemoteAddr
	slog.Info("pad feed connected", "remote", remote)

	id := f.conns.Add(1)
	written := make(map[int]struct{})
	defer f.release(id, written)

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("pad feed disconnected", "remote", remote)
			} else if !errors.Is(err, context.Canceled) {
				slog.Warn("pad feed read failed", "remote", remote, "err", err)
			}
			return
		}
		if typ != websocket.MessageText {
			slog.Warn("pad feed: binary frame ignored", "remote", remote)
			continue
		}

		var fr Frame
		if err := json.Unmarshal(data, &fr); err != nil {
			slog.Warn("pad feed: malformed frame ignored", "remote", remote, "err", err)
			continue
		}
		if fr.Slot < int(pad.HandheldSource) || fr.Slot > MaxSlot {
			slog.Warn("pad feed: slot out of range", "remote", remote, "slot", fr.Slot)
			continue
		}

		f.mu.Lock()
		f.states[fr.Slot] = slotState{conn: id, state: fr.State}
		f.mu.Unlock()
		written[fr.Slot] = struct{}{}
	}
}

// release clears the slots still owned by connection id.
func (f *Feed) release(id uint64, slots map[int]struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range slots {
		if f.states[s].conn == id {
			delete(f.states, s)
		}
	}
}

// Send writes fr to conn as one text frame.
func Send(ctx context.Context, conn *websocket.Conn, fr Frame) error {
	data, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("wsfeed: marshal frame: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("wsfeed: write frame: %w", err)
	}
	return nil
}
