// Package devstate holds the value types describing one device at an
// instant. Every type is comparable with ==.
package devstate

import (
	"fmt"
	"math/bits"

	"kafji.net/hidstate/keycode"
)

type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

const keyWords = (int(keycode.ControlCount) + 63) / 64

// KeyboardState is one bit per [keycode.Control].
type KeyboardState struct {
	bits [keyWords]uint64
}

func (s *KeyboardState) Set(c keycode.Control, down bool) {
	checkControl(c)
	if down {
		s.bits[c/64] |= 1 << (c % 64)
	} else {
		s.bits[c/64] &^= 1 << (c % 64)
	}
}

func (s KeyboardState) Down(c keycode.Control) bool {
	checkControl(c)
	return s.bits[c/64]&(1<<(c%64)) != 0
}

// Pressed lists the controls that are down in ascending order.
func (s KeyboardState) Pressed() []keycode.Control {
	var out []keycode.Control
	for i, w := range s.bits {
		for w != 0 {
			n := bits.TrailingZeros64(w)
			out = append(out, keycode.Control(i*64+n))
			w &^= 1 << n
		}
	}
	return out
}

func checkControl(c keycode.Control) {
	if c >= keycode.ControlCount {
		panic(fmt.Sprintf("devstate: control %d out of range", c))
	}
}

// MaxMouseButtons bounds platform mouse button ids.
const MaxMouseButtons = 32

type MouseButtons uint32

func (b *MouseButtons) Set(id uint8, down bool) {
	checkButton(id)
	if down {
		*b |= 1 << id
	} else {
		*b &^= 1 << id
	}
}

func (b MouseButtons) Down(id uint8) bool {
	checkButton(id)
	return b&(1<<id) != 0
}

func checkButton(id uint8) {
	if id >= MaxMouseButtons {
		panic(fmt.Sprintf("devstate: mouse button %d out of range", id))
	}
}

type MouseState struct {
	// Position is window space with Y measured from the bottom edge.
	Position Vec2 `json:"position"`
	// Delta is motion accumulated since the last reconciliation.
	Delta Vec2 `json:"delta"`
	// Scroll is wheel movement accumulated since the last reconciliation.
	Scroll  Vec2         `json:"scroll"`
	Buttons MouseButtons `json:"buttons"`
	Cursor  Cursor       `json:"cursor"`
}

// ClearEphemeral zeroes the accumulators. Level state is kept.
func (s *MouseState) ClearEphemeral() {
	s.Delta = Vec2{}
	s.Scroll = Vec2{}
}

// Cursor is an OS cursor shape.
type Cursor uint8

const (
	CursorArrow Cursor = iota
	CursorIBeam
	CursorWait
	CursorCrosshair
	CursorWaitArrow
	CursorSizeNWSE
	CursorSizeNESW
	CursorSizeWE
	CursorSizeNS
	CursorSizeAll
	CursorNo
	CursorHand
	CursorHidden
)

var cursorNames = [...]string{
	CursorArrow:     "arrow",
	CursorIBeam:     "ibeam",
	CursorWait:      "wait",
	CursorCrosshair: "crosshair",
	CursorWaitArrow: "wait-arrow",
	CursorSizeNWSE:  "size-nwse",
	CursorSizeNESW:  "size-nesw",
	CursorSizeWE:    "size-we",
	CursorSizeNS:    "size-ns",
	CursorSizeAll:   "size-all",
	CursorNo:        "no",
	CursorHand:      "hand",
	CursorHidden:    "hidden",
}

func (c Cursor) String() string {
	if int(c) < len(cursorNames) {
		return cursorNames[c]
	}
	return fmt.Sprintf("Cursor(%d)", uint8(c))
}

// ButtonState is the edge view of a button across two frames.
type ButtonState uint8

const (
	Idle ButtonState = iota
	Pressed
	Held
	Released
)

func Button(previous, current bool) ButtonState {
	switch {
	case !previous && current:
		return Pressed
	case previous && current:
		return Held
	case previous && !current:
		return Released
	}
	return Idle
}

func (s ButtonState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Held:
		return "held"
	case Released:
		return "released"
	}
	return fmt.Sprintf("ButtonState(%d)", uint8(s))
}
