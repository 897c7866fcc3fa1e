package sdlwindow

import (
	"fmt"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
)

type tracked struct {
	entity entity.Entity
	width  float32
	height float32
	alive  bool
	gone   bool
	dirty  bool
}

// Windows mirrors SDL windows into window entities. Window events update it
// from any thread; Sync writes the result to the store and must run on the
// goroutine that runs the engine's passes.
type Windows struct {
	mu      sync.Mutex
	windows map[inputevent.WindowID]*tracked
}

func NewWindows() *Windows {
	return &Windows{windows: make(map[inputevent.WindowID]*tracked)}
}

func (w *Windows) Track(win *sdl.Window) (inputevent.WindowID, error) {
	id, err := win.GetID()
	if err != nil {
		return 0, fmt.Errorf("failed to get window id: %w", err)
	}
	width, height := win.GetSize()
	w.set(inputevent.WindowID(id), float32(width), float32(height))
	return inputevent.WindowID(id), nil
}

// Untrack marks a window destroyed; its entity goes at the next Sync.
func (w *Windows) Untrack(id inputevent.WindowID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.windows[id]; ok {
		t.gone = true
		t.dirty = true
	}
}

func (w *Windows) set(id inputevent.WindowID, width, height float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.windows[id]
	if !ok {
		t = &tracked{}
		w.windows[id] = t
	}
	t.width, t.height = width, height
	t.alive = true
	t.gone = false
	t.dirty = true
}

func (w *Windows) observe(ev *sdl.WindowEvent) {
	id := inputevent.WindowID(ev.WindowID)

	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.windows[id]
	if !ok {
		return
	}
	switch ev.Event {
	case sdl.WINDOWEVENT_SIZE_CHANGED:
		t.width, t.height = float32(ev.Data1), float32(ev.Data2)
	case sdl.WINDOWEVENT_CLOSE:
		t.alive = false
	case sdl.WINDOWEVENT_SHOWN:
		t.alive = true
	default:
		return
	}
	t.dirty = true
}

// Sync writes changed windows to the store.
func (w *Windows) Sync(store entity.Store) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, t := range w.windows {
		if !t.dirty {
			continue
		}
		t.dirty = false

		if t.gone {
			if t.entity != 0 {
				store.Destroy(t.entity)
			}
			delete(w.windows, id)
			slog.Debug("window entity destroyed", "window", id)
			continue
		}
		if t.entity == 0 || !store.Valid(t.entity) {
			t.entity = store.Create()
		}
		store.Attach(t.entity, entity.Window{ID: id, Width: t.width, Height: t.height, Alive: t.alive})
	}
}
