// Package replay runs a recorded journal through a fresh engine.
package replay

import (
	"context"
	"errors"
	"io"

	"kafji.net/hidstate/engine"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/recorder"
	"kafji.net/hidstate/window"
)

var slog = logging.NewLogger("hidstate/replay")

// ScreenWindow stands in for the global-hook screen. Replay has no global
// source, so global events are measured against a window with this id.
const ScreenWindow inputevent.WindowID = 0xFFFF_FFFF

type Stats struct {
	Events  int
	Dropped int
	Passes  int
}

type replayer struct {
	store   *entity.MemStore
	engine  *engine.Engine
	windows map[inputevent.WindowID]entity.Entity
}

// Run feeds every entry of rd into an engine publishing to store, calling
// onFrame after each pass.
func Run(ctx context.Context, rd *recorder.Reader, store *entity.MemStore, onFrame func(engine.Frame)) (Stats, error) {
	r := &replayer{
		store:   store,
		engine:  engine.New(store, engine.Config{}),
		windows: make(map[inputevent.WindowID]entity.Entity),
	}
	defer r.engine.Close()

	slog.Info("replaying journal", "session", rd.Session())

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		e, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		switch e.Type {
		case recorder.EntryEvent:
			stats.Events++
			ev := e.Event
			if ev.Window() == inputevent.NoWindow {
				ev = inputevent.Rebind(ev, inputevent.Source{DeviceID: ev.Device(), WindowID: ScreenWindow})
			}
			if err := r.engine.Handle(ev); err != nil {
				stats.Dropped++
			}

		case recorder.EntryPass:
			stats.Passes++
			r.syncWindows(e.Windows)
			frame := r.engine.Reconcile(e.At)
			if onFrame != nil {
				onFrame(frame)
			}
		}
	}
}

// syncWindows makes the store's windows match a pass marker.
func (r *replayer) syncWindows(contexts []window.Context) {
	seen := make(map[inputevent.WindowID]bool, len(contexts))
	for _, c := range contexts {
		id := c.ID
		if id == inputevent.NoWindow {
			id = ScreenWindow
		}
		seen[id] = true

		ent, ok := r.windows[id]
		if !ok || !r.store.Valid(ent) {
			ent = r.store.Create()
			r.windows[id] = ent
		}
		r.store.Attach(ent, entity.Window{ID: id, Width: c.Size.X, Height: c.Size.Y, Alive: c.Alive})
	}

	for id, ent := range r.windows {
		if seen[id] {
			continue
		}
		r.store.Destroy(ent)
		delete(r.windows, id)
	}
}
