// Package health serves the liveness and readiness probes of the process.
//
//   - /healthz answers 200 while the process can serve HTTP.
//   - /readyz answers 200 once every [Checker] passes, 503 otherwise.
//
// Both respond with {"status": "ok"|"fail", "checks": {name: result}}.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is one named readiness condition. Check returns nil when the
// condition holds.
type Checker struct {
	// Name is the key of the check in the response (e.g. "registry").
	Name string

	// Check must respect context cancellation.
	Check func(ctx context.Context) error
}

// Flag returns a checker that passes while ready reports true. notReady is
// the failure message.
func Flag(name string, ready func() bool, notReady string) Checker {
	return Checker{Name: name, Check: func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ready() {
			return errors.New(notReady)
		}
		return nil
	}}
}

// NonEmpty returns a checker that passes while count reports at least one
// element.
func NonEmpty(name string, count func() int) Checker {
	return Checker{Name: name, Check: func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n := count(); n < 1 {
			return fmt.Errorf("%s is empty", name)
		}
		return nil
	}}
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. The checker list is fixed at
// construction.
type Handler struct {
	checkers []Checker
}

// New returns a [Handler] evaluating checkers in order on each /readyz.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz always returns 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz returns 200 when every checker passes within [checkTimeout].
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := result{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	status := http.StatusOK

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			res.Checks[c.Name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[c.Name] = "ok"
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
