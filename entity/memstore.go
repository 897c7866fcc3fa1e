package entity

import (
	"iter"
	"maps"
	"slices"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
)

type components struct {
	owner    *Owner
	keyboard *Keyboard
	mouse    *Mouse
	window   *Window
	cursor   *CursorRequest
}

// MemStore is a map-backed Store. It is not safe for concurrent use.
type MemStore struct {
	next     Entity
	entities map[Entity]*components
}

func NewMemStore() *MemStore {
	return &MemStore{entities: make(map[Entity]*components)}
}

func (s *MemStore) Create() Entity {
	s.next++
	s.entities[s.next] = &components{}
	return s.next
}

func (s *MemStore) Destroy(e Entity) {
	delete(s.entities, e)
}

func (s *MemStore) Valid(e Entity) bool {
	_, ok := s.entities[e]
	return ok
}

func (s *MemStore) Len() int {
	return len(s.entities)
}

func (s *MemStore) Attach(e Entity, c Component) {
	cs, ok := s.entities[e]
	if !ok {
		return
	}
	switch c := c.(type) {
	case Owner:
		cs.owner = &c
	case Keyboard:
		cs.keyboard = &c
	case Mouse:
		cs.mouse = &c
	case Window:
		cs.window = &c
	case CursorRequest:
		cs.cursor = &c
	}
}

func (s *MemStore) Windows() iter.Seq2[Entity, Window] {
	return func(yield func(Entity, Window) bool) {
		for _, e := range slices.Sorted(maps.Keys(s.entities)) {
			cs := s.entities[e]
			if cs == nil || cs.window == nil {
				continue
			}
			if !yield(e, *cs.window) {
				return
			}
		}
	}
}

func (s *MemStore) CursorRequest(e Entity) (devstate.Cursor, bool) {
	cs, ok := s.entities[e]
	if !ok || cs.cursor == nil {
		return 0, false
	}
	return cs.cursor.Cursor, true
}

// SpawnWindow creates a live window entity.
func (s *MemStore) SpawnWindow(id inputevent.WindowID, width, height float32) Entity {
	e := s.Create()
	s.Attach(e, Window{ID: id, Width: width, Height: height, Alive: true})
	return e
}

func (s *MemStore) Owner(e Entity) (Owner, bool) {
	return get(s, e, func(cs *components) *Owner { return cs.owner })
}

func (s *MemStore) Keyboard(e Entity) (Keyboard, bool) {
	return get(s, e, func(cs *components) *Keyboard { return cs.keyboard })
}

func (s *MemStore) Mouse(e Entity) (Mouse, bool) {
	return get(s, e, func(cs *components) *Mouse { return cs.mouse })
}

func (s *MemStore) Window(e Entity) (Window, bool) {
	return get(s, e, func(cs *components) *Window { return cs.window })
}

func get[T any](s *MemStore, e Entity, field func(*components) *T) (T, bool) {
	var zero T
	cs, ok := s.entities[e]
	if !ok {
		return zero, false
	}
	v := field(cs)
	if v == nil {
		return zero, false
	}
	return *v, true
}
