// Package variant defines the closed set of regional overrides an asset can
// be served as.
package variant

import "fmt"

// Variant selects which regional copy of an asset is served. The zero value
// is [Default].
type Variant uint8

const (
	// Default serves the asset from the default directory.
	Default Variant = iota

	// Eng serves the English-region asset.
	Eng

	// Jp serves the Japanese-region asset.
	Jp
)

// All lists every variant in probe order.
var All = []Variant{Eng, Jp, Default}

// String returns the wire tag of v: "eng", "jp" or "default".
func (v Variant) String() string {
	switch v {
	case Eng:
		return "eng"
	case Jp:
		return "jp"
	case Default:
		return "default"
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// IsValid reports whether v is one of the declared variants.
func (v Variant) IsValid() bool {
	return v == Default || v == Eng || v == Jp
}

// Parse maps a wire tag to its Variant. ok is false for unknown tags, in
// which case the returned variant is [Eng], the fallback used for
// unrecognised submissions.
func Parse(tag string) (v Variant, ok bool) {
	switch tag {
	case "eng":
		return Eng, true
	case "jp":
		return Jp, true
	case "default":
		return Default, true
	}
	return Eng, false
}

// MarshalText implements [encoding.TextMarshaler].
func (v Variant) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("variant: invalid value %d", uint8(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler]. Unlike [Parse] it
// rejects unknown tags.
func (v *Variant) UnmarshalText(b []byte) error {
	p, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("variant: unknown tag %q", b)
	}
	*v = p
	return nil
}

// Dirs maps each variant to the directory its files live in.
type Dirs struct {
	Eng     string
	Jp      string
	Default string
}

// For returns the directory for v. Unknown values map to the default
// directory.
func (d Dirs) For(v Variant) string {
	switch v {
	case Eng:
		return d.Eng
	case Jp:
		return d.Jp
	}
	return d.Default
}
