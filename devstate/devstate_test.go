package devstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kafji.net/hidstate/keycode"
)

func TestKeyboardStateBits(t *testing.T) {
	var s KeyboardState
	assert.False(t, s.Down(keycode.A))

	s.Set(keycode.A, true)
	s.Set(keycode.Menu, true)
	assert.True(t, s.Down(keycode.A))
	assert.True(t, s.Down(keycode.Menu))
	assert.False(t, s.Down(keycode.B))
	assert.Equal(t, []keycode.Control{keycode.A, keycode.Menu}, s.Pressed())

	s.Set(keycode.A, false)
	assert.False(t, s.Down(keycode.A))
	assert.Equal(t, []keycode.Control{keycode.Menu}, s.Pressed())
}

func TestKeyboardStateEquality(t *testing.T) {
	var a, b KeyboardState
	assert.Equal(t, a, b)
	a.Set(keycode.Space, true)
	assert.NotEqual(t, a, b)
	b.Set(keycode.Space, true)
	assert.True(t, a == b)
}

func TestKeyboardStateOutOfRangePanics(t *testing.T) {
	var s KeyboardState
	assert.Panics(t, func() { s.Set(keycode.ControlCount, true) })
	assert.Panics(t, func() { s.Down(keycode.Control(255)) })
}

func TestMouseButtons(t *testing.T) {
	var b MouseButtons
	b.Set(1, true)
	b.Set(3, true)
	assert.True(t, b.Down(1))
	assert.False(t, b.Down(2))
	assert.True(t, b.Down(3))
	b.Set(1, false)
	assert.False(t, b.Down(1))
	assert.Panics(t, func() { b.Set(MaxMouseButtons, true) })
}

func TestClearEphemeral(t *testing.T) {
	s := MouseState{
		Position: Vec2{X: 1, Y: 2},
		Delta:    Vec2{X: 3, Y: 4},
		Scroll:   Vec2{X: 5, Y: 6},
		Cursor:   CursorHand,
	}
	s.Buttons.Set(1, true)

	s.ClearEphemeral()

	assert.Equal(t, Vec2{}, s.Delta)
	assert.Equal(t, Vec2{}, s.Scroll)
	assert.Equal(t, Vec2{X: 1, Y: 2}, s.Position)
	assert.True(t, s.Buttons.Down(1))
	assert.Equal(t, CursorHand, s.Cursor)
}

func TestButton(t *testing.T) {
	assert.Equal(t, Idle, Button(false, false))
	assert.Equal(t, Pressed, Button(false, true))
	assert.Equal(t, Held, Button(true, true))
	assert.Equal(t, Released, Button(true, false))
}
