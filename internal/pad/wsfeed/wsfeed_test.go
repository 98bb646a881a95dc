package wsfeed_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/voiceselect/internal/pad"
	"github.com/MrWong99/voiceselect/internal/pad/wsfeed"
)

// startFeed serves f and dials it. The server and connection are closed when
// the test finishes.
func startFeed(t *testing.T, f *wsfeed.Feed) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return dial(t, srv), srv
}

// dial opens another connection to srv, closed when the test finishes.
func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestFeed_FramesUpdateState(t *testing.T) {
	t.Parallel()
	f := wsfeed.New()
	conn, _ := startFeed(t, f)
	ctx := context.Background()

	held := pad.State{UpdateCount: 3, Buttons: pad.ButtonL | pad.ButtonR, LStick: pad.Stick{X: 10, Y: -4}}
	if err := wsfeed.Send(ctx, conn, wsfeed.Frame{Slot: 4, State: held}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	eventually(t, "slot 4 state", func() bool {
		s, _ := f.FullKey(ctx, 4)
		return s == held
	})
	src, ok := pad.Detect(ctx, f, pad.DefaultChord, 8)
	if !ok || src != 4 {
		t.Errorf("Detect = %v, %v; want slot-4", src, ok)
	}
	if s, err := f.Handheld(ctx); err != nil || s != (pad.State{}) {
		t.Errorf("Handheld = %+v, %v; want zero state", s, err)
	}
}

func TestFeed_IgnoresBadFrames(t *testing.T) {
	t.Parallel()
	f := wsfeed.New()
	conn, _ := startFeed(t, f)
	ctx := context.Background()

	for _, raw := range []string{`not json`, `{"slot": 12, "buttons": 768}`, `{"slot": -3}`} {
		if err := conn.Write(ctx, websocket.MessageText, []byte(raw)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := wsfeed.Send(ctx, conn, wsfeed.Frame{Slot: -1, State: pad.State{UpdateCount: 1}}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	eventually(t, "handheld frame after bad frames", func() bool {
		s, _ := f.Handheld(ctx)
		return s.UpdateCount == 1
	})
}

func TestFeed_DisconnectClearsSlots(t *testing.T) {
	t.Parallel()
	f := wsfeed.New()
	conn, _ := startFeed(t, f)
	ctx := context.Background()

	if err := wsfeed.Send(ctx, conn, wsfeed.Frame{Slot: 0, State: pad.State{Buttons: pad.ButtonL}}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	eventually(t, "slot 0 state", func() bool {
		s, _ := f.FullKey(ctx, 0)
		return s.Buttons == pad.ButtonL
	})

	conn.Close(websocket.StatusNormalClosure, "bye")
	eventually(t, "slot 0 cleared", func() bool {
		s, _ := f.FullKey(ctx, 0)
		return s == pad.State{}
	})
}

func TestFeed_DisconnectKeepsSlotsTakenOver(t *testing.T) {
	t.Parallel()
	f := wsfeed.New()
	first, srv := startFeed(t, f)
	second := dial(t, srv)
	ctx := context.Background()

	for _, fr := range []wsfeed.Frame{
		{Slot: 0, State: pad.State{Buttons: pad.ButtonL}},
		{Slot: 1, State: pad.State{Buttons: pad.ButtonL}},
	} {
		if err := wsfeed.Send(ctx, first, fr); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	eventually(t, "first connection's slots", func() bool {
		s0, _ := f.FullKey(ctx, 0)
		s1, _ := f.FullKey(ctx, 1)
		return s0.Buttons == pad.ButtonL && s1.Buttons == pad.ButtonL
	})

	if err := wsfeed.Send(ctx, second, wsfeed.Frame{Slot: 0, State: pad.State{Buttons: pad.ButtonR}}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	eventually(t, "slot 0 taken over", func() bool {
		s, _ := f.FullKey(ctx, 0)
		return s.Buttons == pad.ButtonR
	})

	first.Close(websocket.StatusNormalClosure, "bye")
	eventually(t, "slot 1 cleared", func() bool {
		s, _ := f.FullKey(ctx, 1)
		return s == pad.State{}
	})
	if s, _ := f.FullKey(ctx, 0); s.Buttons != pad.ButtonR {
		t.Errorf("slot 0 buttons = %#x; want %#x", s.Buttons, pad.ButtonR)
	}
}
