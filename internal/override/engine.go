package override

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voiceselect/internal/assets"
	"github.com/MrWong99/voiceselect/internal/observe"
	"github.com/MrWong99/voiceselect/internal/roster"
	"github.com/MrWong99/voiceselect/internal/variant"
	"github.com/MrWong99/voiceselect/pkg/hash40"
)

// HashFunc maps a host archive path to its content hash.
type HashFunc func(path string) uint64

const (
	defaultSlots            = 8
	defaultProbeConcurrency = 8
)

// BootstrapReport summarises one [Engine.Bootstrap] run.
type BootstrapReport struct {
	// Entities is the number of roster entities processed.
	Entities int

	// Registered is the number of hashes registered with the host.
	Registered int

	// Skipped is the number of slots left unregistered because none of
	// their variants exist.
	Skipped int
}

// ApplyReport summarises one [Engine.Apply] run.
type ApplyReport struct {
	// Applied is the number of records whose entity was updated.
	Applied int

	// Slots is the number of registry entries whose selection changed as
	// a consequence.
	Slots int

	// Unknown lists record entities that are not in the roster.
	Unknown []string
}

// Engine wires the [Registry], the [SelectionStore] and the byte-lookup
// service together. Construct with [New].
type Engine struct {
	roster   *roster.Roster
	reader   assets.Reader
	layout   assets.Layout
	resolver *assets.Resolver
	hash     HashFunc
	metrics  *observe.Metrics

	slots            int
	probeConcurrency int

	registry   *Registry
	selections *SelectionStore
	ready      atomic.Bool
}

// Option configures an [Engine].
type Option func(*Engine)

// WithHashFunc replaces the content hash (default [hash40.Sum]).
func WithHashFunc(fn HashFunc) Option {
	return func(e *Engine) { e.hash = fn }
}

// WithMetrics sets the metric instruments (default [observe.DefaultMetrics]).
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSlots sets the number of numbered sub-assets per entity.
func WithSlots(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.slots = n
		}
	}
}

// WithProbeConcurrency bounds how many entities are sized in parallel during
// bootstrap.
func WithProbeConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.probeConcurrency = n
		}
	}
}

// New returns an Engine over the entities of r, reading variants through
// reader at the paths described by layout.
func New(r *roster.Roster, reader assets.Reader, layout assets.Layout, opts ...Option) *Engine {
	e := &Engine{
		roster:           r,
		reader:           reader,
		layout:           layout,
		hash:             hash40.Sum,
		slots:            defaultSlots,
		probeConcurrency: defaultProbeConcurrency,
		registry:         NewRegistry(),
		selections:       NewSelectionStore(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	e.resolver = assets.NewResolver(reader, layout, assets.WithDurationRecorder(
		func(ctx context.Context, d time.Duration) {
			e.metrics.ResolveDuration.Record(ctx, d.Seconds())
		},
	))
	return e
}

// Registry returns the hash registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Selections returns the selection store.
func (e *Engine) Selections() *SelectionStore { return e.selections }

// Roster returns the entity roster.
func (e *Engine) Roster() *roster.Roster { return e.roster }

// Ready reports whether [Engine.Bootstrap] has completed.
func (e *Engine) Ready() bool { return e.ready.Load() }

// Bootstrap registers every slot of every roster entity with host and
// initialises the selection store. Slots of entities without any variant on
// disk are skipped. Entities are sized concurrently; registration happens in
// roster order.
func (e *Engine) Bootstrap(ctx context.Context, host Host) (BootstrapReport, error) {
	ctx, span := observe.StartSpan(ctx, "override.Bootstrap")
	defer span.End()

	ids := e.roster.IDs()
	e.selections.Init(ids)

	type bank struct {
		size  int
		found bool
	}
	banks := make([]bank, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.probeConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			size, found := e.resolver.MaxSize(gctx, e.layout.BankFile(id))
			banks[i] = bank{size: size, found: found}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BootstrapReport{}, fmt.Errorf("override: bootstrap: %w", err)
	}

	report := BootstrapReport{Entities: len(ids)}
	for i, id := range ids {
		fileName := e.layout.BankFile(id)
		for slot := range e.slots {
			slotPath := e.layout.SlotPath(id, slot)
			hash := e.hash(slotPath)

			if !banks[i].found || banks[i].size <= 0 {
				slog.Debug("no variant on disk, slot skipped", "entity", id, "path", slotPath)
				e.metrics.SkippedSlots.Add(ctx, 1)
				report.Skipped++
				continue
			}

			err := e.registry.Install(hash, Entry{FileName: fileName, Entity: id, Selected: variant.Default})
			if errors.Is(err, ErrDuplicateHash) {
				slog.Warn("hash collision, slot skipped", "entity", id, "path", slotPath, "hash", hash40.Hash(hash))
				e.metrics.SkippedSlots.Add(ctx, 1)
				report.Skipped++
				continue
			}
			if err := host.RegisterOverride(hash, banks[i].size, e.OnHashRequested); err != nil {
				return report, fmt.Errorf("override: register %q: %w", slotPath, err)
			}
			e.metrics.RegisteredHashes.Add(ctx, 1)
			report.Registered++
		}
	}

	span.SetAttributes(
		attribute.Int("entities", report.Entities),
		attribute.Int("registered", report.Registered),
		attribute.Int("skipped", report.Skipped),
	)
	e.ready.Store(true)
	slog.Info("override bootstrap complete",
		"entities", report.Entities,
		"registered", report.Registered,
		"skipped", report.Skipped,
	)
	return report, nil
}

// OnHashRequested is the [Callback] registered for every hash. It copies the
// currently selected variant of hash into buf. A missing variant or one
// larger than buf yields (0, false) so the host loads its own asset.
//
// OnHashRequested panics with [ErrUnregisteredHash] when hash was never
// registered.
func (e *Engine) OnHashRequested(hash uint64, buf []byte) (int, bool) {
	start := time.Now()
	ctx, span := observe.StartSpan(context.Background(), "override.OnHashRequested",
		trace.WithAttributes(attribute.String("hash", hash40.Hash(hash).String())),
	)
	defer span.End()

	entry, ok := e.registry.Get(hash)
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrUnregisteredHash, hash40.Hash(hash)))
	}

	p := e.layout.VariantPath(entry.Selected, entry.FileName)
	slog.Debug("serving override", "hash", hash40.Hash(hash), "path", p)

	status := observe.StatusHit
	defer func() {
		span.SetAttributes(attribute.String("status", status))
		e.metrics.RecordCallback(ctx, entry.Selected.String(), status, time.Since(start).Seconds())
	}()

	data, err := e.reader.Read(ctx, p)
	if err != nil {
		slog.Debug("variant unavailable, host asset used", "path", p, "err", err)
		status = observe.StatusMiss
		return 0, false
	}
	if len(data) > len(buf) {
		slog.Warn("variant exceeds registered size, host asset used",
			"path", p, "size", len(data), "max_size", len(buf))
		status = observe.StatusOversize
		return 0, false
	}
	return copy(buf, data), true
}

// Apply stores each record's variant and propagates it to every registered
// slot of the entity. Records naming unknown entities are logged and skipped;
// they never stop the remaining records. Apply is idempotent.
func (e *Engine) Apply(ctx context.Context, records []Record) ApplyReport {
	ctx, span := observe.StartSpan(ctx, "override.Apply",
		trace.WithAttributes(attribute.Int("records", len(records))),
	)
	defer span.End()
	log := observe.Logger(ctx)

	var report ApplyReport
	for _, rec := range records {
		if rec.Anomalous {
			e.metrics.RecordRejectedRecord(ctx, "unknown_tag")
		}
		if !e.selections.Set(rec.Entity, rec.Variant) {
			attrs := []any{"entity", rec.Entity}
			if s, ok := e.roster.Suggest(rec.Entity); ok {
				attrs = append(attrs, "did_you_mean", s)
			}
			log.Warn("selection for unknown entity ignored", attrs...)
			e.metrics.RecordRejectedRecord(ctx, "unknown_entity")
			report.Unknown = append(report.Unknown, rec.Entity)
			continue
		}

		for slot := range e.slots {
			if e.registry.SetSelectedFor(e.hash(e.layout.SlotPath(rec.Entity, slot)), rec.Entity, rec.Variant) {
				report.Slots++
			}
		}
		e.metrics.RecordSelectionUpdate(ctx, rec.Variant.String())
		log.Debug("selection updated", "entity", rec.Entity, "variant", rec.Variant)
		report.Applied++
	}
	return report
}
