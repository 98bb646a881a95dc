package surface

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/voiceselect/internal/observe"
	"github.com/MrWong99/voiceselect/internal/override"
)

// Default submission framing.
const (
	DefaultOrigin    = "http://localhost/"
	DefaultDelimiter = "CSK_SPLIT"
)

// Controller shows the page for an [override.Engine] and applies what the
// operator submits. Construct with [NewController].
type Controller struct {
	engine  *override.Engine
	surface Surface
	metrics *observe.Metrics

	origin    string
	delimiter string
}

// ControllerOption configures a [Controller].
type ControllerOption func(*Controller)

// WithOrigin sets the URL prefix of page results.
func WithOrigin(origin string) ControllerOption {
	return func(c *Controller) {
		if origin != "" {
			c.origin = origin
		}
	}
}

// WithDelimiter sets the record separator of submissions.
func WithDelimiter(delim string) ControllerOption {
	return func(c *Controller) {
		if delim != "" {
			c.delimiter = delim
		}
	}
}

// WithMetrics sets the metric instruments (default [observe.DefaultMetrics]).
func WithMetrics(m *observe.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController returns a Controller showing pages on s.
func NewController(eng *override.Engine, s Surface, opts ...ControllerOption) *Controller {
	c := &Controller{
		engine:    eng,
		surface:   s,
		origin:    DefaultOrigin,
		delimiter: DefaultDelimiter,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Page builds the page from the roster and the current selections.
func (c *Controller) Page() Page {
	snap := c.engine.Selections().Snapshot()
	ents := c.engine.Roster().Entities()

	page := Page{Items: make([]Item, 0, len(ents))}
	for _, e := range ents {
		page.Items = append(page.Items, Item{
			ID:       e.ID,
			Name:     e.Name,
			Selected: snap[e.ID].String(),
		})
	}
	return page
}

// Show presents the page, waits for the operator, and applies the
// submission. Surface failures are logged and treated as a dismissal.
func (c *Controller) Show(ctx context.Context) {
	ctx, span := observe.StartSpan(ctx, "surface.Show")
	defer span.End()
	log := observe.Logger(ctx)

	res, err := c.surface.Show(ctx, c.Page())
	if err != nil {
		log.Warn("configuration surface failed", "err", err)
		c.metrics.RecordSurfaceOutcome(ctx, observe.OutcomeError)
		return
	}

	sub, err := ParseSubmission(res.LastURL, c.origin, c.delimiter)
	if err != nil {
		log.Warn("configuration surface returned an unusable result", "err", err)
		c.metrics.RecordSurfaceOutcome(ctx, observe.OutcomeError)
		return
	}
	if sub.Dismissed {
		log.Info("configuration surface dismissed")
		c.metrics.RecordSurfaceOutcome(ctx, observe.OutcomeDismissed)
		return
	}

	for range sub.Malformed {
		c.metrics.RecordRejectedRecord(ctx, "malformed")
	}
	report := c.engine.Apply(ctx, sub.Records)
	span.SetAttributes(
		attribute.Int("applied", report.Applied),
		attribute.Int("malformed", len(sub.Malformed)),
	)
	log.Info("selections applied",
		"records", len(sub.Records),
		"applied", report.Applied,
		"slots", report.Slots,
		"malformed", len(sub.Malformed),
		"unknown", len(report.Unknown),
	)
	c.metrics.RecordSurfaceOutcome(ctx, observe.OutcomeSubmitted)
}
