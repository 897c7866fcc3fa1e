package engine

import (
	"time"

	"kafji.net/hidstate/device"
	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
)

// Reconcile publishes every device's current and previous state to the
// store, then advances previous to current and clears the accumulators.
// Call it once per tick.
func (e *Engine) Reconcile(now time.Time) Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ent := range e.graveyard {
		e.store.Destroy(ent)
	}
	e.graveyard = e.graveyard[:0]

	e.windows.Refresh(e.store)

	e.tick++
	frame := Frame{Tick: e.tick, Time: now}

	e.keyboards.Each(func(r *device.Record[devstate.KeyboardState]) {
		e.materialize(&r.Entity, r.WindowID)
		e.store.Attach(r.Entity, entity.Keyboard{Current: r.Current, Previous: r.Previous, Updated: now})
		frame.Keyboards = append(frame.Keyboards, KeyboardFrame{
			DeviceID: r.DeviceID,
			WindowID: r.WindowID,
			Entity:   r.Entity,
			Current:  r.Current,
			Previous: r.Previous,
		})
	})

	e.mice.Each(func(r *device.Record[devstate.MouseState]) {
		e.materialize(&r.Entity, r.WindowID)
		if c, ok := e.store.CursorRequest(r.Entity); ok {
			r.Current.Cursor = c
		}
		if r.Current.Cursor != r.Previous.Cursor && e.cursor != nil {
			if err := e.cursor.SetCursor(r.Current.Cursor); err != nil {
				slog.Warn("failed to set cursor", "device", r.DeviceID, "cursor", r.Current.Cursor, "error", err)
			}
		}
		e.store.Attach(r.Entity, entity.Mouse{Current: r.Current, Previous: r.Previous, Updated: now})
		frame.Mice = append(frame.Mice, MouseFrame{
			DeviceID: r.DeviceID,
			WindowID: r.WindowID,
			Entity:   r.Entity,
			Current:  r.Current,
			Previous: r.Previous,
		})
	})

	e.keyboards.Each(func(r *device.Record[devstate.KeyboardState]) {
		r.Previous = r.Current
	})
	e.mice.Each(func(r *device.Record[devstate.MouseState]) {
		r.Previous = r.Current
		r.Current.ClearEphemeral()
	})

	return frame
}

// materialize creates the device entity when it is absent or was destroyed
// by someone else.
func (e *Engine) materialize(ent *entity.Entity, owner inputevent.WindowID) {
	if *ent != 0 && e.store.Valid(*ent) {
		return
	}
	*ent = e.store.Create()
	e.store.Attach(*ent, entity.Owner{Window: owner})
	slog.Debug("device entity created", "entity", *ent, "window", owner)
}
