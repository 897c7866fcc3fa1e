package engine

import "sync"

// Handle is an opaque token naming a registered engine. It is what OS
// callbacks carry in their user-data slot.
type Handle uint64

type slot struct {
	engine *Engine
	gen    uint32
}

// Registrations resolves handles to engines. A handle stops resolving once
// unregistered, even if its slot is reused.
type Registrations struct {
	mu    sync.RWMutex
	slots []slot
	free  []int
}

func (r *Registrations) Register(e *Engine) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var i int
	if n := len(r.free); n > 0 {
		i = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		i = len(r.slots) - 1
	}
	r.slots[i].engine = e
	r.slots[i].gen++
	return Handle(uint64(r.slots[i].gen)<<32 | uint64(i+1))
}

func (r *Registrations) Resolve(h Handle) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, gen := h.split()
	if i < 0 || i >= len(r.slots) {
		return nil, false
	}
	s := r.slots[i]
	if s.engine == nil || s.gen != gen {
		return nil, false
	}
	return s.engine, true
}

func (r *Registrations) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, gen := h.split()
	if i < 0 || i >= len(r.slots) {
		return
	}
	if r.slots[i].engine == nil || r.slots[i].gen != gen {
		return
	}
	r.slots[i].engine = nil
	r.free = append(r.free, i)
}

func (h Handle) split() (int, uint32) {
	return int(uint32(h)) - 1, uint32(h >> 32)
}
