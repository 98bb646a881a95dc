package pad

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MrWong99/voiceselect/internal/observe"
)

// MonitorState is the position of a [Monitor] in its Idle → ShowingSurface
// cycle.
type MonitorState int32

const (
	// Idle means the monitor is polling controllers.
	Idle MonitorState = iota

	// ShowingSurface means OnChord is running and polling is paused.
	ShowingSurface
)

// String returns "idle" or "showing_surface".
func (s MonitorState) String() string {
	if s == ShowingSurface {
		return "showing_surface"
	}
	return "idle"
}

const (
	defaultStartupDelay = 10 * time.Second
	defaultInterval     = time.Second
	defaultSlots        = 8
)

// Monitor polls controllers on a fixed interval and calls OnChord each time
// the chord is held. Construct with [NewMonitor].
type Monitor struct {
	query   Query
	onChord func(ctx context.Context)
	metrics *observe.Metrics

	startupDelay time.Duration
	interval     time.Duration
	slots        int
	chord        Chord

	state atomic.Int32
}

// MonitorOption configures a [Monitor].
type MonitorOption func(*Monitor)

// WithStartupDelay sets the pause before the first poll.
func WithStartupDelay(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.startupDelay = d }
}

// WithInterval sets the pause between polls.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithSlots sets how many full-key slots are scanned.
func WithSlots(n int) MonitorOption {
	return func(m *Monitor) { m.slots = n }
}

// WithChord replaces [DefaultChord].
func WithChord(c Chord) MonitorOption {
	return func(m *Monitor) {
		if c != 0 {
			m.chord = c
		}
	}
}

// WithMetrics sets the metric instruments (default [observe.DefaultMetrics]).
func WithMetrics(mt *observe.Metrics) MonitorOption {
	return func(m *Monitor) { m.metrics = mt }
}

// NewMonitor returns a Monitor reading q. onChord runs on the monitor's
// goroutine and blocks polling until it returns.
func NewMonitor(q Query, onChord func(ctx context.Context), opts ...MonitorOption) *Monitor {
	m := &Monitor{
		query:        q,
		onChord:      onChord,
		startupDelay: defaultStartupDelay,
		interval:     defaultInterval,
		slots:        defaultSlots,
		chord:        DefaultChord,
	}
	for _, o := range opts {
		o(m)
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}
	return m
}

// State returns the current monitor state.
func (m *Monitor) State() MonitorState {
	return MonitorState(m.state.Load())
}

// Run waits for the startup delay and then polls until ctx is cancelled. It
// always returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("input monitor started",
		"startup_delay", m.startupDelay,
		"interval", m.interval,
		"slots", m.slots,
	)

	timer := time.NewTimer(m.startupDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		m.Poll(ctx)
		timer.Reset(m.interval)
	}
}

// Poll runs one detection cycle and reports whether the chord was held.
func (m *Monitor) Poll(ctx context.Context) bool {
	src, ok := Detect(ctx, m.query, m.chord, m.slots)
	if !ok {
		return false
	}

	slog.Info("activation chord detected", "source", src)
	m.metrics.RecordChord(ctx, src.String())

	m.state.Store(int32(ShowingSurface))
	defer m.state.Store(int32(Idle))
	m.onChord(ctx)
	return true
}
