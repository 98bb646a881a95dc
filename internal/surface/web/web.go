// Package web implements [surface.Surface] as a page served over HTTP.
//
// While a page is open, GET /menu renders it and GET /done/{rest...} closes
// it, handing origin+rest back to the blocked [Server.Show] call as the
// result URL.
package web

import (
	"context"
	_ "embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/MrWong99/voiceselect/internal/surface"
	"github.com/MrWong99/voiceselect/internal/variant"
)

// ErrBusy is returned by [Server.Show] while another page is open.
var ErrBusy = errors.New("web: a page is already open")

//go:embed menu.html
var menuHTML string

var menuTmpl = template.Must(template.New("menu").Parse(menuHTML))

// menuData is the template input of menu.html.
type menuData struct {
	Items     []surface.Item
	Variants  []string
	Delimiter string
}

// Compile-time interface assertion.
var _ surface.Surface = (*Server)(nil)

// Server serves at most one open page at a time. Construct with [New].
type Server struct {
	origin    string
	delimiter string

	mu      sync.Mutex
	pending *session
}

type session struct {
	page surface.Page
	done chan string
}

// New returns a Server whose results are prefixed with origin and whose page
// joins records with delimiter.
func New(origin, delimiter string) *Server {
	return &Server{origin: origin, delimiter: delimiter}
}

// Register mounts the page handlers on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /menu", s.handleMenu)
	mux.HandleFunc("GET /done/{rest...}", s.handleDone)
}

// Open reports whether a page is currently shown.
func (s *Server) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Show implements [surface.Surface]. It blocks until the page is closed
// through /done/ or ctx ends.
func (s *Server) Show(ctx context.Context, page surface.Page) (surface.Result, error) {
	sess := &session{page: page, done: make(chan string, 1)}

	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return surface.Result{}, ErrBusy
	}
	s.pending = sess
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.pending == sess {
			s.pending = nil
		}
		s.mu.Unlock()
	}()

	slog.Info("configuration page open", "path", "/menu", "items", len(page.Items))
	select {
	case <-ctx.Done():
		return surface.Result{}, ctx.Err()
	case u := <-sess.done:
		return surface.Result{LastURL: u}, nil
	}
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess := s.pending
	s.mu.Unlock()
	if sess == nil {
		http.NotFound(w, r)
		return
	}

	data := menuData{Items: sess.page.Items, Delimiter: s.delimiter}
	for _, v := range variant.All {
		data.Variants = append(data.Variants, v.String())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := menuTmpl.Execute(w, data); err != nil {
		slog.Warn("render menu", "err", err)
	}
}

func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess := s.pending
	s.pending = nil
	s.mu.Unlock()
	if sess == nil {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.EscapedPath(), "/done/")
	sess.done <- s.origin + rest

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("saved, you can close this page\n"))
}
