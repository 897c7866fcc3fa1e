// Package inputevent defines the closed set of inbound device events.
package inputevent

import (
	"errors"
	"fmt"

	"kafji.net/hidstate/keycode"
)

type DeviceID uint32

type WindowID uint32

const (
	// NoWindow is the window of events captured outside any window.
	NoWindow WindowID = 0

	// GlobalDevice is the virtual device aggregating global input.
	GlobalDevice DeviceID = 0xFFFF_FFFE
)

type Source struct {
	DeviceID DeviceID `json:"device"`
	WindowID WindowID `json:"window"`
}

func (s Source) Device() DeviceID { return s.DeviceID }

func (s Source) Window() WindowID { return s.WindowID }

func (s Source) source() Source { return s }

// Event is implemented by the variants in this package only.
type Event interface {
	Device() DeviceID
	Window() WindowID
	Kind() Kind
	source() Source
}

type Kind uint8

const (
	KindKeyboardAdded Kind = iota + 1
	KindKeyboardRemoved
	KindKeyDown
	KindKeyUp
	KindMouseAdded
	KindMouseRemoved
	KindMouseMotion
	KindMouseWheel
	KindMouseButtonDown
	KindMouseButtonUp
)

var kindNames = [...]string{
	KindKeyboardAdded:   "KeyboardAdded",
	KindKeyboardRemoved: "KeyboardRemoved",
	KindKeyDown:         "KeyDown",
	KindKeyUp:           "KeyUp",
	KindMouseAdded:      "MouseAdded",
	KindMouseRemoved:    "MouseRemoved",
	KindMouseMotion:     "MouseMotion",
	KindMouseWheel:      "MouseWheel",
	KindMouseButtonDown: "MouseButtonDown",
	KindMouseButtonUp:   "MouseButtonUp",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name != "" && name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var ErrUnknownKind = errors.New("unknown event kind")

// keyboard

type KeyboardAdded struct {
	Source
}

type KeyboardRemoved struct {
	Source
}

type KeyDown struct {
	Source
	Platform keycode.Platform `json:"platform"`
	Code     uint32           `json:"code"`
}

type KeyUp struct {
	Source
	Platform keycode.Platform `json:"platform"`
	Code     uint32           `json:"code"`
}

// mouse

type MouseAdded struct {
	Source
}

type MouseRemoved struct {
	Source
}

// MouseMotion carries window coordinates with Y measured from the top edge,
// as platforms report them.
type MouseMotion struct {
	Source
	X  float32 `json:"x"`
	Y  float32 `json:"y"`
	DX float32 `json:"dx"`
	DY float32 `json:"dy"`
}

type MouseWheel struct {
	Source
	DX float32 `json:"dx"`
	DY float32 `json:"dy"`
}

type MouseButtonDown struct {
	Source
	Button uint8 `json:"button"`
}

type MouseButtonUp struct {
	Source
	Button uint8 `json:"button"`
}

func (KeyboardAdded) Kind() Kind   { return KindKeyboardAdded }
func (KeyboardRemoved) Kind() Kind { return KindKeyboardRemoved }
func (KeyDown) Kind() Kind         { return KindKeyDown }
func (KeyUp) Kind() Kind           { return KindKeyUp }
func (MouseAdded) Kind() Kind      { return KindMouseAdded }
func (MouseRemoved) Kind() Kind    { return KindMouseRemoved }
func (MouseMotion) Kind() Kind     { return KindMouseMotion }
func (MouseWheel) Kind() Kind      { return KindMouseWheel }
func (MouseButtonDown) Kind() Kind { return KindMouseButtonDown }
func (MouseButtonUp) Kind() Kind   { return KindMouseButtonUp }

// Decode builds the variant named by k, filling it with unmarshal. It lets
// any codec decode into the closed set.
func Decode(k Kind, unmarshal func(v any) error) (Event, error) {
	switch k {
	case KindKeyboardAdded:
		return decode[KeyboardAdded](unmarshal)
	case KindKeyboardRemoved:
		return decode[KeyboardRemoved](unmarshal)
	case KindKeyDown:
		return decode[KeyDown](unmarshal)
	case KindKeyUp:
		return decode[KeyUp](unmarshal)
	case KindMouseAdded:
		return decode[MouseAdded](unmarshal)
	case KindMouseRemoved:
		return decode[MouseRemoved](unmarshal)
	case KindMouseMotion:
		return decode[MouseMotion](unmarshal)
	case KindMouseWheel:
		return decode[MouseWheel](unmarshal)
	case KindMouseButtonDown:
		return decode[MouseButtonDown](unmarshal)
	case KindMouseButtonUp:
		return decode[MouseButtonUp](unmarshal)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
}

func decode[T Event](unmarshal func(v any) error) (Event, error) {
	var v T
	if err := unmarshal(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Rebind returns ev with its source replaced.
func Rebind(ev Event, src Source) Event {
	switch v := ev.(type) {
	case KeyboardAdded:
		v.Source = src
		return v
	case KeyboardRemoved:
		v.Source = src
		return v
	case KeyDown:
		v.Source = src
		return v
	case KeyUp:
		v.Source = src
		return v
	case MouseAdded:
		v.Source = src
		return v
	case MouseRemoved:
		v.Source = src
		return v
	case MouseMotion:
		v.Source = src
		return v
	case MouseWheel:
		v.Source = src
		return v
	case MouseButtonDown:
		v.Source = src
		return v
	case MouseButtonUp:
		v.Source = src
		return v
	}
	panic(fmt.Sprintf("inputevent: unexpected event %T", ev))
}
