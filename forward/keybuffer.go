package forward

import (
	"slices"
	"time"

	"kafji.net/hidstate/keycode"
)

// tapWindow bounds how long a double tap may take.
const tapWindow = 300 * time.Millisecond

type keyBufferEntry struct {
	c    keycode.Control
	down bool
	t    time.Time
}

// keyBuffer remembers recent key transitions to spot a double tap of the
// toggle key.
type keyBuffer struct {
	toggle keycode.Control
	buf    []keyBufferEntry
}

func (b *keyBuffer) push(c keycode.Control, down bool, now time.Time) {
	i, _ := slices.BinarySearchFunc(
		b.buf,
		now.Add(-tapWindow),
		func(e keyBufferEntry, t2 time.Time) int {
			return e.t.Compare(t2)
		},
	)
	b.buf = append(b.buf[i:], keyBufferEntry{c: c, down: down, t: now})
}

// toggleKeyStrokeExists reports a double tap completed after the given
// time, and when its first release happened.
func (b *keyBuffer) toggleKeyStrokeExists(after time.Time) (bool, time.Time) {
	c := 1
	var t time.Time
	for i := len(b.buf) - 1; i >= 0; i-- {
		e := b.buf[i]
		if e.c != b.toggle {
			continue
		}
		if !e.t.After(after) {
			return false, time.Time{}
		}
		switch {
		case c == 1 && !e.down:
			t = e.t
			fallthrough
		case c%2 != 0 && !e.down:
			c++
		case c%2 == 0 && e.down:
			c++
		}
		if c/2 == 2 {
			return true, t
		}
	}
	return false, time.Time{}
}
