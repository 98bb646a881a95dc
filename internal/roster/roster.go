// Package roster holds the static table of entities whose assets can be
// overridden.
//
// The table is declared once, in an embedded YAML file, and consulted
// everywhere an entity id needs to be enumerated or validated: bootstrap
// walks it to register hashes, the configuration surface renders it in
// order, and submission handling checks ids against it. The set is fixed for
// the lifetime of the process.
package roster

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"gopkg.in/yaml.v3"
)

//go:embed roster.yaml
var embedded []byte

// suggestThreshold is the minimum Jaro-Winkler score for [Roster.Suggest]
// to return a candidate.
const suggestThreshold = 0.80

// ErrUnknownEntity is returned by [Roster.Lookup] for ids not in the table.
var ErrUnknownEntity = errors.New("unknown entity")

// Entity describes one logical entity.
type Entity struct {
	// ID is the code name used in asset paths (e.g. "mario", "ice_climber").
	ID string `yaml:"id"`

	// Name is the human-readable label shown on the configuration surface.
	Name string `yaml:"name"`
}

// File is the on-disk shape of a roster file.
type File struct {
	Entities []Entity `yaml:"entities"`
}

// Roster is an ordered, immutable set of entities. It is safe for
// concurrent use.
type Roster struct {
	entities []Entity
	index    map[string]int
}

var (
	defaultRoster     *Roster
	defaultRosterErr  error
	defaultRosterOnce sync.Once
)

// Default returns the roster compiled into the binary. The embedded file is
// parsed on first use.
func Default() (*Roster, error) {
	defaultRosterOnce.Do(func() {
		defaultRoster, defaultRosterErr = LoadFromReader(bytes.NewReader(embedded))
	})
	return defaultRoster, defaultRosterErr
}

// Load reads a roster file from disk. An empty path returns [Default].
func Load(path string) (*Roster, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("roster: open %q: %w", path, err)
	}
	defer f.Close()

	r, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("roster: parse %q: %w", path, err)
	}
	return r, nil
}

// LoadFromReader decodes a roster from YAML and validates it.
func LoadFromReader(r io.Reader) (*Roster, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("roster: decode yaml: %w", err)
	}
	return New(f.Entities...)
}

// New builds a roster from entities, preserving their order. Every id must
// be non-empty, unique, and free of the characters that delimit asset paths
// and submission records.
func New(entities ...Entity) (*Roster, error) {
	var errs []error
	r := &Roster{
		entities: make([]Entity, 0, len(entities)),
		index:    make(map[string]int, len(entities)),
	}
	for i, e := range entities {
		switch {
		case e.ID == "":
			errs = append(errs, fmt.Errorf("entities[%d].id is required", i))
			continue
		case strings.ContainsAny(e.ID, "/= "):
			errs = append(errs, fmt.Errorf("entities[%d].id %q contains a reserved character", i, e.ID))
			continue
		}
		if prev, ok := r.index[e.ID]; ok {
			errs = append(errs, fmt.Errorf("entities[%d].id %q is a duplicate of entities[%d]", i, e.ID, prev))
			continue
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		r.index[e.ID] = len(r.entities)
		r.entities = append(r.entities, e)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return r, nil
}

// Len returns the number of entities.
func (r *Roster) Len() int { return len(r.entities) }

// Entities returns a copy of the table in declaration order.
func (r *Roster) Entities() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// IDs returns the entity ids in declaration order.
func (r *Roster) IDs() []string {
	out := make([]string, len(r.entities))
	for i, e := range r.entities {
		out[i] = e.ID
	}
	return out
}

// Has reports whether id is in the table.
func (r *Roster) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Lookup returns the entity with the given id.
func (r *Roster) Lookup(id string) (Entity, error) {
	i, ok := r.index[id]
	if !ok {
		return Entity{}, fmt.Errorf("roster: %w: %q", ErrUnknownEntity, id)
	}
	return r.entities[i], nil
}

// Suggest returns the id most similar to the unknown id, for diagnostics.
// ok is false when nothing scores above the similarity threshold.
func (r *Roster) Suggest(id string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(id))
	if needle == "" {
		return "", false
	}
	best, bestScore := "", 0.0
	for _, e := range r.entities {
		score := matchr.JaroWinkler(needle, e.ID, false)
		if s := matchr.JaroWinkler(needle, strings.ToLower(e.Name), false); s > score {
			score = s
		}
		if score > bestScore {
			best, bestScore = e.ID, score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}
