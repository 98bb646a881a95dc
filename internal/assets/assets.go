// Package assets is the byte-lookup layer between the override engine and
// the file system.
//
// Variant files live under one directory per [variant.Variant]:
//
//	rom:/VoiceSelector/eng/vc_mario.nus3audio
//	rom:/VoiceSelector/jp/vc_mario.nus3audio
//	rom:/VoiceSelector/default/vc_mario.nus3audio
//
// The intercepted host paths are numbered per slot and never read directly:
//
//	sound/bank/fighter_voice/vc_mario_c00.nus3audio … vc_mario_c07.nus3audio
//
// [Reader] abstracts the lookup so tests can swap in an in-memory file
// system, and [Resolver] computes the buffer size a hash must be registered
// with.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/MrWong99/voiceselect/internal/variant"
)

// ErrNotFound is returned (wrapped) by a [Reader] when no file exists at the
// requested path.
var ErrNotFound = errors.New("asset not found")

// Reader returns the full contents of the file at path. Implementations must
// be safe for concurrent use and wrap [ErrNotFound] for missing files.
type Reader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// Compile-time assertion that FSReader satisfies the Reader interface.
var _ Reader = (*FSReader)(nil)

// FSReader reads files from an [fs.FS]. Paths may carry a virtual mount
// prefix (e.g. "rom:/") which is stripped before the lookup.
type FSReader struct {
	fsys   fs.FS
	scheme string
}

// NewFSReader returns a reader over fsys. scheme is the mount prefix to strip
// and may be empty.
func NewFSReader(fsys fs.FS, scheme string) *FSReader {
	return &FSReader{fsys: fsys, scheme: scheme}
}

// Read implements [Reader].
func (r *FSReader) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(strings.TrimPrefix(p, r.scheme), "/")
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("assets: read %q: %w", p, ErrNotFound)
	}
	data, err := fs.ReadFile(r.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("assets: read %q: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("assets: read %q: %w", p, err)
	}
	return data, nil
}

// Layout builds the physical and hashed paths of override assets.
type Layout struct {
	// Scheme is the mount prefix of physical paths (e.g. "rom:/").
	Scheme string

	// BasePath is the directory under Scheme containing the variant dirs.
	BasePath string

	// Dirs names the directory of each variant.
	Dirs variant.Dirs

	// HashPrefix is the archive directory of intercepted host paths.
	HashPrefix string

	// Extension is the file extension without the leading dot.
	Extension string
}

// BankFile returns the base file name shared by all variants and slots of
// entity, e.g. "vc_mario.nus3audio".
func (l Layout) BankFile(entity string) string {
	return fmt.Sprintf("vc_%s.%s", entity, l.Extension)
}

// SlotPath returns the host archive path of the numbered sub-asset of
// entity, e.g. "sound/bank/fighter_voice/vc_mario_c03.nus3audio".
func (l Layout) SlotPath(entity string, slot int) string {
	return fmt.Sprintf("%svc_%s_c0%d.%s", l.HashPrefix, entity, slot, l.Extension)
}

// VariantPath returns the physical path of fileName for v, e.g.
// "rom:/VoiceSelector/jp/vc_mario.nus3audio".
func (l Layout) VariantPath(v variant.Variant, fileName string) string {
	return l.Scheme + path.Join(l.BasePath, l.Dirs.For(v), fileName)
}
