package assets

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voiceselect/internal/variant"
)

// missingSize is the size counted for a variant that could not be read. It
// keeps the maximum strictly positive, so a slot where every read failed is
// distinguishable only through the found flag.
const missingSize = 1

// DurationRecorder receives the wall time of one MaxSize call. It is
// satisfied by a closure over an OTel histogram.
type DurationRecorder func(ctx context.Context, d time.Duration)

// Resolver computes the largest physical variant of a file.
type Resolver struct {
	reader Reader
	layout Layout
	record DurationRecorder
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*Resolver)

// WithDurationRecorder reports each MaxSize duration to fn.
func WithDurationRecorder(fn DurationRecorder) ResolverOption {
	return func(r *Resolver) { r.record = fn }
}

// NewResolver returns a Resolver reading through reader.
func NewResolver(reader Reader, layout Layout, opts ...ResolverOption) *Resolver {
	r := &Resolver{reader: reader, layout: layout}
	for _, o := range opts {
		o(r)
	}
	return r
}

// MaxSize returns the byte length of the largest of the eng, jp and default
// copies of fileName. Unreadable variants count as 1 byte. found reports
// whether at least one variant was read with a non-empty body; callers must
// not register a hash when it is false.
//
// The three reads run concurrently. Read errors never fail the call.
func (r *Resolver) MaxSize(ctx context.Context, fileName string) (size int, found bool) {
	start := time.Now()

	type probe struct {
		n  int
		ok bool
	}
	probes := make([]probe, len(variant.All))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variant.All {
		g.Go(func() error {
			p := r.layout.VariantPath(v, fileName)
			data, err := r.reader.Read(gctx, p)
			switch {
			case err != nil && !errors.Is(err, ErrNotFound):
				slog.Debug("variant unreadable", "path", p, "err", err)
			case err == nil && len(data) > 0:
				probes[i] = probe{n: len(data), ok: true}
			}
			return nil
		})
	}
	_ = g.Wait()

	size = missingSize
	for _, pr := range probes {
		if pr.ok {
			found = true
			size = max(size, pr.n)
		}
	}

	if r.record != nil {
		r.record(ctx, time.Since(start))
	}
	return size, found
}
