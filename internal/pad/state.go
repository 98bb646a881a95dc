// Package pad polls controller state and detects the activation chord that
// opens the configuration surface.
package pad

import (
	"context"
	"fmt"
)

// Button bits of [State.Buttons].
const (
	// ButtonL is the left shoulder button.
	ButtonL uint64 = 1 << 8

	// ButtonR is the right shoulder button.
	ButtonR uint64 = 1 << 9
)

// Stick is the position of one analogue stick.
type Stick struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// State is one snapshot of a controller. A disconnected controller reads as
// the zero State.
type State struct {
	UpdateCount int64  `json:"update_count"`
	Buttons     uint64 `json:"buttons"`
	LStick      Stick  `json:"l_stick"`
	RStick      Stick  `json:"r_stick"`
	Flags       uint32 `json:"flags"`
}

// Held reports whether every bit of mask is pressed.
func (s State) Held(mask uint64) bool {
	return mask != 0 && s.Buttons&mask == mask
}

// Query reads controller state. Implementations must be safe for concurrent
// use.
type Query interface {
	// Handheld returns the state of the handheld (attached) controller.
	Handheld(ctx context.Context) (State, error)

	// FullKey returns the state of the detached controller in slot.
	FullKey(ctx context.Context, slot int) (State, error)
}

// Compile-time assertion that NullQuery satisfies the Query interface.
var _ Query = NullQuery{}

// NullQuery reports zero state for every controller. It is used when no
// controller source is attached.
type NullQuery struct{}

// Handheld implements [Query].
func (NullQuery) Handheld(context.Context) (State, error) { return State{}, nil }

// FullKey implements [Query].
func (NullQuery) FullKey(context.Context, int) (State, error) { return State{}, nil }

// Source identifies the controller a chord was read from.
type Source int

// HandheldSource is the [Source] of the handheld controller. Non-negative
// sources are full-key slots.
const HandheldSource Source = -1

// String returns "handheld" or "slot-N".
func (s Source) String() string {
	if s == HandheldSource {
		return "handheld"
	}
	return fmt.Sprintf("slot-%d", int(s))
}
