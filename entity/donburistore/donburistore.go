// Package donburistore implements [entity.Store] on a donburi world, so the
// published device components are queryable by donburi systems.
package donburistore

import (
	"iter"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/entity"
)

// Component types registered with donburi. Systems query these directly.
var (
	Device        = donburi.NewTag()
	Owner         = donburi.NewComponentType[entity.Owner]()
	Keyboard      = donburi.NewComponentType[entity.Keyboard]()
	Mouse         = donburi.NewComponentType[entity.Mouse]()
	Window        = donburi.NewComponentType[entity.Window]()
	CursorRequest = donburi.NewComponentType[entity.CursorRequest]()
)

type Store struct {
	world   donburi.World
	windows *donburi.Query
}

func New(world donburi.World) *Store {
	return &Store{
		world:   world,
		windows: donburi.NewQuery(filter.Contains(Window)),
	}
}

func (s *Store) World() donburi.World {
	return s.world
}

func (s *Store) Create() entity.Entity {
	return entity.Entity(s.world.Create(Device))
}

func (s *Store) Destroy(e entity.Entity) {
	if !s.Valid(e) {
		return
	}
	s.world.Remove(donburi.Entity(e))
}

func (s *Store) Valid(e entity.Entity) bool {
	return e != 0 && s.world.Valid(donburi.Entity(e))
}

func (s *Store) Attach(e entity.Entity, c entity.Component) {
	if !s.Valid(e) {
		return
	}
	entry := s.world.Entry(donburi.Entity(e))
	switch c := c.(type) {
	case entity.Owner:
		set(entry, Owner, c)
	case entity.Keyboard:
		set(entry, Keyboard, c)
	case entity.Mouse:
		set(entry, Mouse, c)
	case entity.Window:
		set(entry, Window, c)
	case entity.CursorRequest:
		set(entry, CursorRequest, c)
	}
}

func set[T any](entry *donburi.Entry, ct *donburi.ComponentType[T], v T) {
	if entry.HasComponent(ct) {
		ct.SetValue(entry, v)
		return
	}
	donburi.Add(entry, ct, &v)
}

func (s *Store) Windows() iter.Seq2[entity.Entity, entity.Window] {
	return func(yield func(entity.Entity, entity.Window) bool) {
		type found struct {
			e entity.Entity
			w entity.Window
		}
		// Each cannot stop early, and yield may touch the world.
		var all []found
		s.windows.Each(s.world, func(entry *donburi.Entry) {
			all = append(all, found{e: entity.Entity(entry.Entity()), w: *Window.Get(entry)})
		})
		for _, f := range all {
			if !yield(f.e, f.w) {
				return
			}
		}
	}
}

func (s *Store) CursorRequest(e entity.Entity) (devstate.Cursor, bool) {
	if !s.Valid(e) {
		return 0, false
	}
	entry := s.world.Entry(donburi.Entity(e))
	if !entry.HasComponent(CursorRequest) {
		return 0, false
	}
	return CursorRequest.Get(entry).Cursor, true
}
