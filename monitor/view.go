package monitor

import (
	"time"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/engine"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

// FrameView is what inspectors receive for each published frame.
type FrameView struct {
	Tick      uint64         `json:"tick"`
	Time      time.Time      `json:"time"`
	Keyboards []KeyboardView `json:"keyboards"`
	Mice      []MouseView    `json:"mice"`
}

type KeyboardView struct {
	Device   inputevent.DeviceID `json:"device"`
	Window   inputevent.WindowID `json:"window"`
	Entity   entity.Entity       `json:"entity"`
	Down     []string            `json:"down"`
	Pressed  []string            `json:"pressed,omitempty"`
	Released []string            `json:"released,omitempty"`
}

type MouseView struct {
	Device   inputevent.DeviceID `json:"device"`
	Window   inputevent.WindowID `json:"window"`
	Entity   entity.Entity       `json:"entity"`
	Position devstate.Vec2       `json:"position"`
	Delta    devstate.Vec2       `json:"delta"`
	Scroll   devstate.Vec2       `json:"scroll"`
	Buttons  []uint8             `json:"buttons"`
	Cursor   string              `json:"cursor"`
}

func NewFrameView(f engine.Frame) FrameView {
	v := FrameView{
		Tick:      f.Tick,
		Time:      f.Time,
		Keyboards: make([]KeyboardView, 0, len(f.Keyboards)),
		Mice:      make([]MouseView, 0, len(f.Mice)),
	}
	for _, k := range f.Keyboards {
		v.Keyboards = append(v.Keyboards, keyboardView(k))
	}
	for _, m := range f.Mice {
		v.Mice = append(v.Mice, mouseView(m))
	}
	return v
}

func keyboardView(k engine.KeyboardFrame) KeyboardView {
	v := KeyboardView{Device: k.DeviceID, Window: k.WindowID, Entity: k.Entity, Down: names(k.Current.Pressed())}
	for c := keycode.Control(0); c < keycode.ControlCount; c++ {
		switch devstate.Button(k.Previous.Down(c), k.Current.Down(c)) {
		case devstate.Pressed:
			v.Pressed = append(v.Pressed, c.String())
		case devstate.Released:
			v.Released = append(v.Released, c.String())
		}
	}
	return v
}

func mouseView(m engine.MouseFrame) MouseView {
	v := MouseView{
		Device:   m.DeviceID,
		Window:   m.WindowID,
		Entity:   m.Entity,
		Position: m.Current.Position,
		Delta:    m.Current.Delta,
		Scroll:   m.Current.Scroll,
		Buttons:  []uint8{},
		Cursor:   m.Current.Cursor.String(),
	}
	for id := uint8(0); id < devstate.MaxMouseButtons; id++ {
		if m.Current.Buttons.Down(id) {
			v.Buttons = append(v.Buttons, id)
		}
	}
	return v
}

func names(cs []keycode.Control) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.String())
	}
	return out
}
