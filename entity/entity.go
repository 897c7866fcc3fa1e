// Package entity is the boundary to the engine-wide entity/component store.
// The reconciler depends only on [Store]; storage layout stays with the
// implementation.
package entity

import (
	"iter"
	"time"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

// Entity is a handle into a Store. The zero value is never a live entity.
type Entity uint64

type Store interface {
	Create() Entity
	Destroy(e Entity)
	Valid(e Entity) bool
	Attach(e Entity, c Component)

	// Windows yields every entity carrying a Window component.
	Windows() iter.Seq2[Entity, Window]

	// CursorRequest returns the cursor a consumer asked for on a mouse entity.
	CursorRequest(e Entity) (devstate.Cursor, bool)
}

// Component is one of the component types in this package.
type Component interface {
	component()
}

// Owner references the window a device entity belongs to.
type Owner struct {
	Window inputevent.WindowID
}

type Keyboard struct {
	Current  devstate.KeyboardState
	Previous devstate.KeyboardState
	Updated  time.Time
}

func (k Keyboard) Key(c keycode.Control) devstate.ButtonState {
	return devstate.Button(k.Previous.Down(c), k.Current.Down(c))
}

type Mouse struct {
	Current  devstate.MouseState
	Previous devstate.MouseState
	Updated  time.Time
}

func (m Mouse) Button(id uint8) devstate.ButtonState {
	return devstate.Button(m.Previous.Buttons.Down(id), m.Current.Buttons.Down(id))
}

// Window is owned by the windowing collaborator. Alive turns false while the
// window is closing, before its entity goes away.
type Window struct {
	ID     inputevent.WindowID
	Width  float32
	Height float32
	Alive  bool
}

// CursorRequest is written by consumers on a mouse entity.
type CursorRequest struct {
	Cursor devstate.Cursor
}

func (Owner) component()         {}
func (Keyboard) component()      {}
func (Mouse) component()         {}
func (Window) component()        {}
func (CursorRequest) component() {}
