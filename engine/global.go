package engine

import (
	"context"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
)

// GlobalSource delivers input captured outside any window, on its own
// goroutine. Stop must return only once no further event will be sent.
type GlobalSource interface {
	Inputs() <-chan inputevent.Event
	Stop()
}

type globalPath struct {
	source GlobalSource
	cancel context.CancelFunc
	done   chan struct{}
}

var globalSource = inputevent.Source{DeviceID: inputevent.GlobalDevice, WindowID: inputevent.NoWindow}

// AttachGlobal feeds src into the engine as the single global device, with
// coordinates measured against a screen of the given size. Only one source
// may be attached; a second attach is a configuration error and returns
// ErrMultipleOwners.
func (e *Engine) AttachGlobal(ctx context.Context, src GlobalSource, screen devstate.Vec2) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.global != nil {
		return ErrMultipleOwners
	}

	e.windows.SetVirtual(inputevent.NoWindow, screen)

	ctx, cancel := context.WithCancel(ctx)
	g := &globalPath{source: src, cancel: cancel, done: make(chan struct{})}
	e.global = g
	go e.pump(ctx, g)

	slog.Info("global source attached", "screen", screen)
	return nil
}

func (e *Engine) pump(ctx context.Context, g *globalPath) {
	defer close(g.done)
	defer e.release(g)

	held := newHeldInputs()
	inputs := g.source.Inputs()
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-inputs:
			if !ok {
				slog.Warn("global source stopped")
				return
			}
			switch ev := ev.(type) {
			case inputevent.KeyboardAdded, inputevent.MouseAdded:
				// the physical devices behind the hook share one virtual device
				continue
			case inputevent.KeyboardRemoved:
				for _, up := range held.removeKeyboard(ev.DeviceID) {
					_ = e.Handle(inputevent.Rebind(up, globalSource))
				}
				continue
			case inputevent.MouseRemoved:
				for _, up := range held.removeMouse(ev.DeviceID) {
					_ = e.Handle(inputevent.Rebind(up, globalSource))
				}
				continue
			}
			held.track(ev)
			_ = e.Handle(inputevent.Rebind(ev, globalSource))
		}
	}
}

// release tears down the global path once its pump has stopped, whether it
// was detached or its source or context ended.
func (e *Engine) release(g *globalPath) {
	g.cancel()
	g.source.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.global != g {
		return
	}
	e.global = nil
	e.windows.RemoveVirtual(inputevent.NoWindow)
	_ = remove(e, e.keyboards, inputevent.GlobalDevice)
	_ = remove(e, e.mice, inputevent.GlobalDevice)
	slog.Info("global source detached")
}

// DetachGlobal stops the global source and waits until its pump has exited.
// The global device records are removed; their entities go at the next pass.
func (e *Engine) DetachGlobal() {
	e.mu.Lock()
	g := e.global
	e.mu.Unlock()
	if g == nil {
		return
	}

	// the pump may be waiting on the lock, so stop it unlocked
	g.cancel()
	g.source.Stop()
	<-g.done
}

// Close detaches the global source, then rejects every later event. Window
// event sources must be deregistered before Close so that no callback is in
// flight against the engine afterwards.
func (e *Engine) Close() {
	e.DetachGlobal()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
