// Package sdlwindow connects SDL windows to the engine: it forwards SDL input
// events, tracks windows into the entity store, and applies cursor requests.
package sdlwindow

import (
	"github.com/veandco/go-sdl2/sdl"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
	"kafji.net/hidstate/logging"
)

var slog = logging.NewLogger("hidstate/sdlwindow")

// SDL_TOUCH_MOUSEID, the id SDL gives mouse events it synthesizes from touch
const touchMouseID = 0xFFFF_FFFF

// SDL2 keyboard events carry no device, so every window keyboard is one
// device.
const keyboardDevice inputevent.DeviceID = 0

// Translate converts an SDL event into an input event. It reports false for
// events that carry no device input: repeats, touch-synthesized mouse
// events, and everything that is not keyboard or mouse.
func Translate(ev sdl.Event) (inputevent.Event, bool) {
	switch ev := ev.(type) {
	case *sdl.KeyboardEvent:
		if ev.Repeat != 0 {
			return nil, false
		}
		src := inputevent.Source{DeviceID: keyboardDevice, WindowID: inputevent.WindowID(ev.WindowID)}
		code := uint32(ev.Keysym.Scancode)
		switch ev.Type {
		case sdl.KEYDOWN:
			return inputevent.KeyDown{Source: src, Platform: keycode.PlatformScancode, Code: code}, true
		case sdl.KEYUP:
			return inputevent.KeyUp{Source: src, Platform: keycode.PlatformScancode, Code: code}, true
		}

	case *sdl.MouseMotionEvent:
		if ev.Which == touchMouseID {
			return nil, false
		}
		return inputevent.MouseMotion{
			Source: mouseSource(ev.Which, ev.WindowID),
			X:      float32(ev.X),
			Y:      float32(ev.Y),
			DX:     float32(ev.XRel),
			DY:     float32(ev.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		if ev.Which == touchMouseID {
			return nil, false
		}
		src := mouseSource(ev.Which, ev.WindowID)
		switch ev.Type {
		case sdl.MOUSEBUTTONDOWN:
			return inputevent.MouseButtonDown{Source: src, Button: ev.Button}, true
		case sdl.MOUSEBUTTONUP:
			return inputevent.MouseButtonUp{Source: src, Button: ev.Button}, true
		}

	case *sdl.MouseWheelEvent:
		if ev.Which == touchMouseID {
			return nil, false
		}
		dx, dy := float32(ev.X), float32(ev.Y)
		if ev.Direction == sdl.MOUSEWHEEL_FLIPPED {
			dx, dy = -dx, -dy
		}
		return inputevent.MouseWheel{Source: mouseSource(ev.Which, ev.WindowID), DX: dx, DY: dy}, true
	}

	return nil, false
}

func mouseSource(which, window uint32) inputevent.Source {
	return inputevent.Source{DeviceID: inputevent.DeviceID(which), WindowID: inputevent.WindowID(window)}
}
