package engine

import (
	"fmt"

	"kafji.net/hidstate/device"
	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

// Handle applies one event to the current buffers. It never blocks beyond
// the engine lock and never touches the entity store. The returned error
// says why an event was dropped; it is informational only.
func (e *Engine) Handle(ev inputevent.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.tap != nil {
		e.tap(ev)
	}

	err := e.dispatch(ev)
	if err != nil {
		slog.Debug("event dropped", "kind", ev.Kind(), "device", ev.Device(), "window", ev.Window(), "error", err)
	}
	return err
}

func (e *Engine) dispatch(ev inputevent.Event) error {
	switch ev := ev.(type) {
	case inputevent.KeyboardAdded:
		// records are created lazily on the first key
		return nil

	case inputevent.KeyboardRemoved:
		return remove(e, e.keyboards, ev.DeviceID)

	case inputevent.KeyDown:
		return e.key(ev.Source, ev.Platform, ev.Code, true)

	case inputevent.KeyUp:
		return e.key(ev.Source, ev.Platform, ev.Code, false)

	case inputevent.MouseAdded:
		return nil

	case inputevent.MouseRemoved:
		return remove(e, e.mice, ev.DeviceID)

	case inputevent.MouseMotion:
		return e.motion(ev)

	case inputevent.MouseWheel:
		r, err := e.mice.GetOrCreate(ev.DeviceID, ev.WindowID, e.windows)
		if err != nil {
			return err
		}
		r.Current.Scroll = r.Current.Scroll.Add(devstate.Vec2{X: ev.DX, Y: ev.DY})
		return nil

	case inputevent.MouseButtonDown:
		return e.button(ev.Source, ev.Button, true)

	case inputevent.MouseButtonUp:
		return e.button(ev.Source, ev.Button, false)
	}

	return fmt.Errorf("%w: %T", ErrUnexpectedEvent, ev)
}

func remove[S any](e *Engine, table *device.Table[S], id inputevent.DeviceID) error {
	r, ok := table.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}
	if r.Entity != 0 {
		e.graveyard = append(e.graveyard, r.Entity)
	}
	return nil
}

func (e *Engine) key(src inputevent.Source, p keycode.Platform, code uint32, down bool) error {
	c, err := keycode.Translate(p, code)
	if err != nil {
		return err
	}
	r, err := e.keyboards.GetOrCreate(src.DeviceID, src.WindowID, e.windows)
	if err != nil {
		return err
	}
	r.Current.Set(c, down)
	return nil
}

func (e *Engine) motion(ev inputevent.MouseMotion) error {
	// coordinates are relative to the window the event names, which may not
	// be the window that first saw the mouse
	ctx, ok := e.windows.Lookup(ev.WindowID)
	if !ok || !ctx.Alive {
		return ErrUnknownWindow
	}
	r, err := e.mice.GetOrCreate(ev.DeviceID, ev.WindowID, e.windows)
	if err != nil {
		return err
	}
	r.Current.Position = devstate.Vec2{X: ev.X, Y: ctx.Size.Y - ev.Y}
	r.Current.Delta = r.Current.Delta.Add(devstate.Vec2{X: ev.DX, Y: -ev.DY})
	return nil
}

func (e *Engine) button(src inputevent.Source, id uint8, down bool) error {
	if id >= devstate.MaxMouseButtons {
		return fmt.Errorf("%w: %d", ErrButtonRange, id)
	}
	r, err := e.mice.GetOrCreate(src.DeviceID, src.WindowID, e.windows)
	if err != nil {
		return err
	}
	r.Current.Buttons.Set(id, down)
	return nil
}
