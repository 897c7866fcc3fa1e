// Package keycode maps platform-native key identifiers to [Control], the
// engine's stable key enumeration.
package keycode

import (
	"errors"
	"fmt"
	"strings"
)

// Control identifies a key independently of the platform that reported it.
type Control uint8

const (
	Unknown Control = iota

	Escape

	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12

	PrintScreen
	ScrollLock
	PauseBreak

	Grave

	D1
	D2
	D3
	D4
	D5
	D6
	D7
	D8
	D9
	D0

	Minus
	Equal

	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z

	LeftBrace
	RightBrace

	SemiColon
	Apostrophe

	Comma
	Dot
	Slash

	Backspace
	BackSlash
	Enter

	Space

	Tab
	CapsLock

	LeftShift
	RightShift

	LeftCtrl
	RightCtrl

	LeftAlt
	RightAlt

	LeftMeta
	RightMeta

	Insert
	Delete

	Home
	End

	PageUp
	PageDown

	Up
	Left
	Down
	Right

	NumLock
	KP0
	KP1
	KP2
	KP3
	KP4
	KP5
	KP6
	KP7
	KP8
	KP9
	KPDivide
	KPMultiply
	KPMinus
	KPPlus
	KPEnter
	KPDot

	Menu

	// ControlCount bounds every Control value. Key state vectors are sized
	// from it.
	ControlCount
)

func (c Control) String() string {
	if int(c) < len(names) && names[c] != "" {
		return names[c]
	}
	return fmt.Sprintf("Control(%d)", uint8(c))
}

// Platform names the numbering scheme of a raw key code.
type Platform uint8

const (
	// PlatformScancode is the USB HID usage id (keyboard page), which is what
	// SDL reports as a scancode.
	PlatformScancode Platform = iota + 1
	// PlatformEvdev is the Linux input subsystem KEY_* code.
	PlatformEvdev
	// PlatformWindows is the Win32 virtual key code.
	PlatformWindows
)

func (p Platform) String() string {
	switch p {
	case PlatformScancode:
		return "scancode"
	case PlatformEvdev:
		return "evdev"
	case PlatformWindows:
		return "windows"
	}
	return fmt.Sprintf("Platform(%d)", uint8(p))
}

var ErrUnmappedKeyCode = errors.New("unmapped key code")

// Translate returns the control for a platform key code.
func Translate(p Platform, code uint32) (Control, error) {
	var m map[uint32]Control
	switch p {
	case PlatformScancode:
		m = fromScancode
	case PlatformEvdev:
		m = fromEvdev
	case PlatformWindows:
		m = fromWindows
	}
	c, ok := m[code]
	if !ok {
		return Unknown, fmt.Errorf("%w: %s 0x%x", ErrUnmappedKeyCode, p, code)
	}
	return c, nil
}

// Code is the inverse of Translate. It reports false when the platform has
// no code for the control.
func Code(p Platform, c Control) (uint32, bool) {
	if c == Unknown || c >= ControlCount {
		return 0, false
	}
	r := rows[c]
	var code uint32
	switch p {
	case PlatformScancode:
		code = r.scancode
	case PlatformEvdev:
		code = r.evdev
	case PlatformWindows:
		code = r.windows
	}
	return code, code != 0
}

var ErrUnknownControl = errors.New("unknown control")

// ParseControl returns the control with the given name, ignoring case.
func ParseControl(name string) (Control, error) {
	for c := Control(1); c < ControlCount; c++ {
		if strings.EqualFold(names[c], name) {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownControl, name)
}
