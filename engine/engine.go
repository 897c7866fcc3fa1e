// Package engine reconciles device events into the double-buffered state
// published to the entity store once per tick.
//
// Events arrive through [Engine.Handle] from any goroutine. [Engine.Reconcile]
// runs once per tick and is the only place the entity store is touched.
package engine

import (
	"errors"
	"sync"
	"time"

	"kafji.net/hidstate/device"
	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/window"
)

var slog = logging.NewLogger("hidstate/engine")

var (
	// ErrUnknownWindow is returned for events naming a window the registry
	// does not know yet.
	ErrUnknownWindow = device.ErrUnknownWindow

	ErrUnknownDevice   = errors.New("invariant violation: unknown device")
	ErrButtonRange     = errors.New("mouse button out of range")
	ErrMultipleOwners  = errors.New("invariant violation: global source already attached")
	ErrClosed          = errors.New("engine closed")
	ErrUnexpectedEvent = errors.New("unexpected event")
)

// CursorSetter selects the OS cursor shape.
type CursorSetter interface {
	SetCursor(c devstate.Cursor) error
}

type Config struct {
	// Cursor is called when a mouse's cursor changes between passes. May be
	// nil.
	Cursor CursorSetter

	// Tap sees every inbound event before it is applied. It runs with the
	// engine locked and must not block.
	Tap func(ev inputevent.Event)
}

type Engine struct {
	mu sync.Mutex

	store  entity.Store
	cursor CursorSetter
	tap    func(inputevent.Event)

	keyboards *device.Table[devstate.KeyboardState]
	mice      *device.Table[devstate.MouseState]
	windows   *window.Registry

	// entities of removed devices, destroyed at the next pass
	graveyard []entity.Entity

	tick   uint64
	closed bool
	global *globalPath
}

func New(store entity.Store, cfg Config) *Engine {
	return &Engine{
		store:     store,
		cursor:    cfg.Cursor,
		tap:       cfg.Tap,
		keyboards: device.NewTable[devstate.KeyboardState](),
		mice:      device.NewTable[devstate.MouseState](),
		windows:   window.NewRegistry(),
	}
}

// Frame is a copy of what one pass published.
type Frame struct {
	Tick      uint64          `json:"tick"`
	Time      time.Time       `json:"time"`
	Keyboards []KeyboardFrame `json:"keyboards"`
	Mice      []MouseFrame    `json:"mice"`
}

type KeyboardFrame struct {
	DeviceID inputevent.DeviceID
	WindowID inputevent.WindowID
	Entity   entity.Entity
	Current  devstate.KeyboardState
	Previous devstate.KeyboardState
}

type MouseFrame struct {
	DeviceID inputevent.DeviceID
	WindowID inputevent.WindowID
	Entity   entity.Entity
	Current  devstate.MouseState
	Previous devstate.MouseState
}

// Windows returns the window contexts as of the last pass.
func (e *Engine) Windows() []window.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows.Contexts()
}

// Devices returns the number of live keyboard and mouse records.
func (e *Engine) Devices() (keyboards, mice int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keyboards.Len(), e.mice.Len()
}
