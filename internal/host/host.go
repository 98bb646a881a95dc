// Package host is an in-process stand-in for the asset loader of the host
// application. It keeps the override table the engine registers into and
// serves assets by hash, consulting the override callback before its own
// archive.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/MrWong99/voiceselect/internal/assets"
	"github.com/MrWong99/voiceselect/internal/override"
	"github.com/MrWong99/voiceselect/pkg/hash40"
)

// Sentinel errors.
var (
	// ErrNoAsset is returned by [Loader.Load] when neither an override nor
	// an archive entry exists for the hash.
	ErrNoAsset = errors.New("host: no asset for hash")

	// ErrAlreadyRegistered is returned by [Loader.RegisterOverride] for a
	// hash that already has a callback.
	ErrAlreadyRegistered = errors.New("host: override already registered")

	// ErrInvalidSize is returned by [Loader.RegisterOverride] for a
	// non-positive buffer size.
	ErrInvalidSize = errors.New("host: invalid override size")
)

// Source tells where a loaded asset came from.
type Source string

const (
	// SourceOverride marks bytes produced by an override callback.
	SourceOverride Source = "hit"

	// SourceArchive marks bytes read from the host's own archive.
	SourceArchive Source = "fallback"
)

// Compile-time assertion that Loader satisfies the override.Host interface.
var _ override.Host = (*Loader)(nil)

type registration struct {
	maxSize int
	cb      override.Callback
}

// Loader resolves hashes to bytes. Construct with [New].
type Loader struct {
	archive assets.Reader

	mu        sync.RWMutex
	overrides map[uint64]registration
	paths     map[uint64]string
}

// New returns a Loader whose archive is read through archive. paths lists the
// archive paths the loader knows; each is addressable by its hash40.
func New(archive assets.Reader, paths ...string) *Loader {
	l := &Loader{
		archive:   archive,
		overrides: make(map[uint64]registration),
		paths:     make(map[uint64]string, len(paths)),
	}
	for _, p := range paths {
		l.paths[hash40.Sum(p)] = p
	}
	return l
}

// RegisterOverride implements [override.Host].
func (l *Loader) RegisterOverride(hash uint64, maxSize int, cb override.Callback) error {
	if maxSize <= 0 {
		return fmt.Errorf("%w: %d for %s", ErrInvalidSize, maxSize, hash40.Hash(hash))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.overrides[hash]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, hash40.Hash(hash))
	}
	l.overrides[hash] = registration{maxSize: maxSize, cb: cb}
	return nil
}

// Overrides returns the number of registered callbacks.
func (l *Loader) Overrides() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.overrides)
}

// Load returns the bytes of hash. A registered callback is tried first with a
// buffer of its registered size; when it declines, the archive copy is used.
func (l *Loader) Load(ctx context.Context, hash uint64) ([]byte, Source, error) {
	l.mu.RLock()
	reg, hasOverride := l.overrides[hash]
	p, inArchive := l.paths[hash]
	l.mu.RUnlock()

	if hasOverride {
		buf := make([]byte, reg.maxSize)
		if n, ok := reg.cb(hash, buf); ok {
			return buf[:n], SourceOverride, nil
		}
	}

	if !inArchive {
		return nil, "", fmt.Errorf("%w: %s", ErrNoAsset, hash40.Hash(hash))
	}
	data, err := l.archive.Read(ctx, p)
	if errors.Is(err, assets.ErrNotFound) {
		return nil, "", fmt.Errorf("%w: %s", ErrNoAsset, hash40.Hash(hash))
	}
	if err != nil {
		return nil, "", fmt.Errorf("host: load %s: %w", hash40.Hash(hash), err)
	}
	return data, SourceArchive, nil
}

// Register mounts GET /assets/{hash} on mux. The hash is hexadecimal with an
// optional 0x prefix.
func (l *Loader) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /assets/{hash}", l.handleAsset)
}

func (l *Loader) handleAsset(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.PathValue("hash"), "0x")
	hash, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		http.Error(w, "invalid hash", http.StatusBadRequest)
		return
	}

	data, src, err := l.Load(r.Context(), hash)
	if errors.Is(err, ErrNoAsset) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Warn("asset load failed", "hash", hash40.Hash(hash), "err", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Override", string(src))
	_, _ = w.Write(data)
}
