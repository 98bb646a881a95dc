package pad

import (
	"context"
	"fmt"
	"log/slog"
)

// Chord is a set of buttons that must all be held at once.
type Chord uint64

// DefaultChord is L+R.
const DefaultChord = Chord(ButtonL | ButtonR)

// ChordOf builds a chord from button bit indices.
func ChordOf(bits ...uint) (Chord, error) {
	var c Chord
	for _, b := range bits {
		if b > 63 {
			return 0, fmt.Errorf("pad: button bit %d out of range", b)
		}
		c |= 1 << b
	}
	if c == 0 {
		return 0, fmt.Errorf("pad: empty chord")
	}
	return c, nil
}

// Matches reports whether s holds every button of c.
func (c Chord) Matches(s State) bool {
	return s.Held(uint64(c))
}

// Detect reads the handheld controller and, when it does not hold the chord,
// the full-key slots 0..slots-1 in order. It returns the first source
// holding the chord. Read errors count as a released chord.
func Detect(ctx context.Context, q Query, c Chord, slots int) (Source, bool) {
	s, err := q.Handheld(ctx)
	if err != nil {
		slog.Debug("handheld read failed", "err", err)
	} else if c.Matches(s) {
		return HandheldSource, true
	}

	for slot := range slots {
		s, err := q.FullKey(ctx, slot)
		if err != nil {
			slog.Debug("controller read failed", "slot", slot, "err", err)
			continue
		}
		if c.Matches(s) {
			return Source(slot), true
		}
	}
	return 0, false
}
