// Package app wires all voiceselect subsystems into a running application.
//
// The App struct owns the full lifecycle: New loads the roster, sizes every
// voice bank and registers the overrides with the host, Run drives the input
// monitor and the HTTP server, and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithHost, WithQuery,
// WithSurface, WithReader). When an option is not provided, New creates the
// standalone implementations from the config.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voiceselect/internal/assets"
	"github.com/MrWong99/voiceselect/internal/config"
	"github.com/MrWong99/voiceselect/internal/health"
	"github.com/MrWong99/voiceselect/internal/host"
	"github.com/MrWong99/voiceselect/internal/observe"
	"github.com/MrWong99/voiceselect/internal/override"
	"github.com/MrWong99/voiceselect/internal/pad"
	"github.com/MrWong99/voiceselect/internal/pad/wsfeed"
	"github.com/MrWong99/voiceselect/internal/roster"
	"github.com/MrWong99/voiceselect/internal/surface"
	"github.com/MrWong99/voiceselect/internal/surface/web"
	"github.com/MrWong99/voiceselect/internal/variant"
)

// shutdownGrace bounds how long Run waits for in-flight HTTP requests.
const shutdownGrace = 5 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg            *config.Config
	metrics        *observe.Metrics
	metricsHandler http.Handler

	// Subsystems, initialised in New.
	roster     *roster.Roster
	reader     assets.Reader
	host       override.Host
	engine     *override.Engine
	surface    surface.Surface
	query      pad.Query
	controller *surface.Controller
	monitor    *pad.Monitor
	health     *health.Handler
	handler    http.Handler

	// Standalone implementations, nil when a double was injected.
	loader *host.Loader
	page   *web.Server
	feed   *wsfeed.Feed

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithHost injects the asset loader overrides are registered with instead of
// the standalone [host.Loader].
func WithHost(h override.Host) Option {
	return func(a *App) { a.host = h }
}

// WithQuery injects the controller source instead of the WebSocket pad feed.
func WithQuery(q pad.Query) Option {
	return func(a *App) { a.query = q }
}

// WithSurface injects the configuration surface instead of the web page.
func WithSurface(s surface.Surface) Option {
	return func(a *App) { a.surface = s }
}

// WithReader injects the byte-lookup service instead of reading
// assets.root from disk.
func WithReader(r assets.Reader) Option {
	return func(a *App) { a.reader = r }
}

// WithMetrics sets the metric instruments (default [observe.DefaultMetrics]).
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithCloser registers fn to run during Shutdown. Closers run in the order
// they were registered.
func WithCloser(fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, fn) }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. It registers every
// override with the host before returning, so the host may start loading
// assets as soon as New succeeds.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Roster ────────────────────────────────────────────────────────
	r, err := roster.Load(cfg.Roster.File)
	if err != nil {
		return nil, fmt.Errorf("app: load roster: %w", err)
	}
	a.roster = r

	// ── 2. Assets + host ─────────────────────────────────────────────────
	layout := a.layout()
	a.initAssets(layout)

	// ── 3. Override engine ───────────────────────────────────────────────
	a.engine = override.New(a.roster, a.reader, layout,
		override.WithMetrics(a.metrics),
		override.WithSlots(cfg.Assets.Slots),
		override.WithProbeConcurrency(cfg.Assets.ProbeConcurrency),
	)
	if _, err := a.engine.Bootstrap(ctx, a.host); err != nil {
		return nil, fmt.Errorf("app: bootstrap: %w", err)
	}

	// ── 4. Surface + monitor ─────────────────────────────────────────────
	if err := a.initSurface(); err != nil {
		return nil, fmt.Errorf("app: init surface: %w", err)
	}

	// ── 5. HTTP ──────────────────────────────────────────────────────────
	a.health = health.New(
		health.Flag("registry", a.engine.Ready, "bootstrap not finished"),
		health.NonEmpty("roster", a.roster.Len),
	)
	a.handler = observe.Middleware(a.metrics)(a.mux())

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

func (a *App) layout() assets.Layout {
	c := a.cfg.Assets
	return assets.Layout{
		Scheme:     c.Scheme,
		BasePath:   c.BasePath,
		Dirs:       variant.Dirs{Eng: c.EngDir, Jp: c.JpDir, Default: c.DefaultDir},
		HashPrefix: c.HashPrefix,
		Extension:  c.Extension,
	}
}

// initAssets opens assets.root for the variant reader and the standalone
// loader unless both were injected.
func (a *App) initAssets(layout assets.Layout) {
	root := a.cfg.Assets.Root
	if root == "" {
		root = "."
	}
	if a.reader == nil {
		a.reader = assets.NewFSReader(os.DirFS(root), a.cfg.Assets.Scheme)
	}
	if a.host == nil {
		var paths []string
		for _, id := range a.roster.IDs() {
			for slot := range a.cfg.Assets.Slots {
				paths = append(paths, layout.SlotPath(id, slot))
			}
		}
		a.loader = host.New(assets.NewFSReader(os.DirFS(root), ""), paths...)
		a.host = a.loader
	}
}

// initSurface builds the surface controller and the monitor that shows it.
func (a *App) initSurface() error {
	if a.surface == nil {
		a.page = web.New(a.cfg.Surface.Origin, a.cfg.Surface.Delimiter)
		a.surface = a.page
	}
	a.controller = surface.NewController(a.engine, a.surface,
		surface.WithOrigin(a.cfg.Surface.Origin),
		surface.WithDelimiter(a.cfg.Surface.Delimiter),
		surface.WithMetrics(a.metrics),
	)

	if a.query == nil {
		a.feed = wsfeed.New()
		a.query = a.feed
	}
	chord, err := pad.ChordOf(a.cfg.Monitor.ChordButtons...)
	if err != nil {
		return err
	}
	a.monitor = pad.NewMonitor(a.query, a.controller.Show,
		pad.WithStartupDelay(a.cfg.Monitor.StartupDelay),
		pad.WithInterval(a.cfg.Monitor.Interval),
		pad.WithSlots(a.cfg.Monitor.ProSlots),
		pad.WithChord(chord),
		pad.WithMetrics(a.metrics),
	)
	return nil
}

func (a *App) mux() *http.ServeMux {
	mux := http.NewServeMux()
	a.health.Register(mux)
	mux.HandleFunc("GET /selections", a.handleSelections)
	if a.metricsHandler != nil {
		mux.Handle("GET /metrics", a.metricsHandler)
	}
	if a.page != nil {
		a.page.Register(mux)
	}
	if a.feed != nil {
		mux.Handle("GET /pad", a.feed)
	}
	if a.loader != nil {
		a.loader.Register(mux)
	}
	return mux
}

func (a *App) handleSelections(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(a.engine.Selections().Snapshot()); err != nil {
		slog.Warn("encode selections", "err", err)
	}
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Engine returns the override engine.
func (a *App) Engine() *override.Engine { return a.engine }

// Monitor returns the input monitor.
func (a *App) Monitor() *pad.Monitor { return a.monitor }

// Handler returns the instrumented HTTP handler serving every route.
func (a *App) Handler() http.Handler { return a.handler }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP on server.listen_addr and runs the input monitor until ctx
// is cancelled. It returns nil on a clean stop.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", a.cfg.Server.ListenAddr, err)
	}
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("http server listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.monitor.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown runs the registered closers in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
