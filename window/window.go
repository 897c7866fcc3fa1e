// Package window keeps the per-window context that device coordinates are
// resolved against.
package window

import (
	"maps"
	"slices"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/logging"
)

var slog = logging.NewLogger("hidstate/window")

type Context struct {
	ID    inputevent.WindowID `json:"id"`
	Size  devstate.Vec2       `json:"size"`
	Alive bool                `json:"alive"`
}

type entry struct {
	ctx     Context
	entity  entity.Entity
	virtual bool
}

// Registry maps window ids to contexts. It is not safe for concurrent use.
type Registry struct {
	windows map[inputevent.WindowID]entry
}

func NewRegistry() *Registry {
	return &Registry{windows: make(map[inputevent.WindowID]entry)}
}

// Refresh drops windows whose entity is gone, then rescans the store.
func (r *Registry) Refresh(store entity.Store) {
	for id, e := range r.windows {
		if e.virtual || store.Valid(e.entity) {
			continue
		}
		slog.Debug("window pruned", "window", id)
		delete(r.windows, id)
	}

	for e, w := range store.Windows() {
		if w.ID == inputevent.NoWindow {
			slog.Warn("ignoring window entity with reserved id", "entity", e)
			continue
		}
		// a repeated id keeps the last size seen
		r.windows[w.ID] = entry{
			ctx: Context{
				ID:    w.ID,
				Size:  devstate.Vec2{X: w.Width, Y: w.Height},
				Alive: w.Alive,
			},
			entity: e,
		}
	}
}

// SetVirtual registers a context that is not backed by an entity, such as
// the screen global-hook input is measured against.
func (r *Registry) SetVirtual(id inputevent.WindowID, size devstate.Vec2) {
	r.windows[id] = entry{ctx: Context{ID: id, Size: size, Alive: true}, virtual: true}
}

func (r *Registry) RemoveVirtual(id inputevent.WindowID) {
	if e, ok := r.windows[id]; ok && e.virtual {
		delete(r.windows, id)
	}
}

func (r *Registry) Lookup(id inputevent.WindowID) (Context, bool) {
	e, ok := r.windows[id]
	return e.ctx, ok
}

// Known reports whether id is registered and alive.
func (r *Registry) Known(id inputevent.WindowID) bool {
	e, ok := r.windows[id]
	return ok && e.ctx.Alive
}

func (r *Registry) Contexts() []Context {
	out := make([]Context, 0, len(r.windows))
	for _, id := range slices.Sorted(maps.Keys(r.windows)) {
		out = append(out, r.windows[id].ctx)
	}
	return out
}
