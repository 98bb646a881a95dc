// Package override routes intercepted asset hashes to the regional variant
// selected for their entity.
//
// An [Engine] owns two maps: the [Registry] (hash → entry) read by the host's
// loader through [Engine.OnHashRequested], and the [SelectionStore]
// (entity → variant) written by the configuration surface through
// [Engine.Apply]. Each map has its own lock and no lock is held across I/O.
//
// Lifecycle:
//
//	eng := override.New(roster, reader, layout)
//	report, err := eng.Bootstrap(ctx, host) // once, before the host loads assets
//	...
//	eng.Apply(ctx, records)                  // any number of times afterwards
package override

import (
	"errors"

	"github.com/MrWong99/voiceselect/internal/variant"
)

// Sentinel errors.
var (
	// ErrUnregisteredHash is the panic value (wrapped) raised when the host
	// requests a hash that was never registered.
	ErrUnregisteredHash = errors.New("override: unregistered hash")

	// ErrDuplicateHash is returned by [Registry.Install] when the hash is
	// already present.
	ErrDuplicateHash = errors.New("override: duplicate hash")
)

// Callback is invoked by the host's loader when it is about to load a
// registered hash. It fills buf with the override bytes and returns their
// length and true, or returns false to let the host load its own asset.
type Callback func(hash uint64, buf []byte) (int, bool)

// Host is the asset loader this engine registers overrides with.
type Host interface {
	// RegisterOverride asks the host to call cb whenever hash is loaded,
	// passing a buffer of maxSize bytes.
	RegisterOverride(hash uint64, maxSize int, cb Callback) error
}

// Entry is the registry value of one intercepted hash.
type Entry struct {
	// FileName is the physical file name shared by all variants, e.g.
	// "vc_mario.nus3audio".
	FileName string

	// Entity is the roster id the hash belongs to.
	Entity string

	// Selected is the variant served on the next request.
	Selected variant.Variant
}

// Record is one parsed entity=variant line of a surface submission.
type Record struct {
	Entity  string
	Variant variant.Variant

	// Anomalous is set when the submitted tag was not recognised and Variant
	// holds the fallback.
	Anomalous bool
}
