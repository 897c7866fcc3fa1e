package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

type knownWindows map[inputevent.WindowID]bool

func (k knownWindows) Known(id inputevent.WindowID) bool {
	return k[id]
}

func TestGetOrCreate(t *testing.T) {
	table := NewTable[devstate.KeyboardState]()
	windows := knownWindows{1: true}

	r, err := table.GetOrCreate(7, 1, windows)
	require.NoError(t, err)
	assert.Equal(t, inputevent.DeviceID(7), r.DeviceID)
	assert.Equal(t, inputevent.WindowID(1), r.WindowID)
	assert.Zero(t, r.Entity)
	assert.Empty(t, r.Current.Pressed())

	r.Current.Set(keycode.A, true)

	again, err := table.GetOrCreate(7, 2, windows)
	require.NoError(t, err, "existing records ignore the window")
	assert.Same(t, r, again)
	assert.True(t, again.Current.Down(keycode.A))
	assert.Equal(t, 1, table.Len())
}

func TestGetOrCreateUnknownWindow(t *testing.T) {
	table := NewTable[devstate.MouseState]()

	r, err := table.GetOrCreate(3, 1, knownWindows{})

	assert.ErrorIs(t, err, ErrUnknownWindow)
	assert.Nil(t, r)
	assert.Equal(t, 0, table.Len())
}

func TestRemove(t *testing.T) {
	table := NewTable[devstate.MouseState]()
	r, err := table.GetOrCreate(3, 1, knownWindows{1: true})
	require.NoError(t, err)
	r.Entity = 42

	removed, ok := table.Remove(3)
	require.True(t, ok)
	assert.Equal(t, inputevent.DeviceID(3), removed.DeviceID)
	assert.EqualValues(t, 42, removed.Entity)

	assert.NotPanics(t, func() {
		_, ok = table.Remove(3)
	})
	assert.False(t, ok)
	_, ok = table.Get(3)
	assert.False(t, ok)
}

func TestEachIsOrdered(t *testing.T) {
	table := NewTable[devstate.MouseState]()
	windows := knownWindows{1: true}
	for _, id := range []inputevent.DeviceID{9, 2, 5} {
		_, err := table.GetOrCreate(id, 1, windows)
		require.NoError(t, err)
	}

	var got []inputevent.DeviceID
	table.Each(func(r *Record[devstate.MouseState]) {
		got = append(got, r.DeviceID)
	})
	assert.Equal(t, []inputevent.DeviceID{2, 5, 9}, got)
}
