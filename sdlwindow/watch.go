package sdlwindow

import (
	"github.com/veandco/go-sdl2/sdl"

	"kafji.net/hidstate/engine"
)

// Watcher feeds SDL events into an engine from an SDL event watch. The
// watch carries only the registration handle, so a callback racing Close
// resolves nothing instead of reaching a closed engine.
type Watcher struct {
	reg     *engine.Registrations
	token   engine.Handle
	windows *Windows
	handle  sdl.EventWatchHandle
}

// Watch registers e and installs the event watch. windows, if not nil, is
// kept up to date from window events.
func Watch(reg *engine.Registrations, e *engine.Engine, windows *Windows) *Watcher {
	w := &Watcher{reg: reg, token: reg.Register(e), windows: windows}
	w.handle = sdl.AddEventWatchFunc(w.filter, w.token)
	return w
}

func (w *Watcher) filter(ev sdl.Event, userdata interface{}) bool {
	token, ok := userdata.(engine.Handle)
	if !ok {
		return true
	}

	if wev, ok := ev.(*sdl.WindowEvent); ok && w.windows != nil {
		w.windows.observe(wev)
		return true
	}

	input, ok := Translate(ev)
	if !ok {
		return true
	}
	e, ok := w.reg.Resolve(token)
	if !ok {
		slog.Debug("event for unregistered engine", "handle", token)
		return true
	}
	// errors only say why an event was dropped; the engine logs them
	_ = e.Handle(input)
	return true
}

// Close removes the event watch and the registration. No callback runs
// against the engine once Close returns.
func (w *Watcher) Close() {
	sdl.DelEventWatch(w.handle)
	w.reg.Unregister(w.token)
}
