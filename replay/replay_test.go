package replay

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/engine"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
	"kafji.net/hidstate/recorder"
	"kafji.net/hidstate/window"
)

func TestReplayJournal(t *testing.T) {
	var buf bytes.Buffer
	rec := newRecorder(&buf)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w1 := []window.Context{{ID: 1, Size: devstate.Vec2{X: 800, Y: 600}, Alive: true}}
	screen := window.Context{ID: inputevent.NoWindow, Size: devstate.Vec2{X: 1920, Y: 1080}, Alive: true}

	// motion before any pass names window 1 is dropped, as it was live
	rec.Record(inputevent.MouseMotion{Source: inputevent.Source{DeviceID: 3, WindowID: 1}, X: 50, Y: 100})
	rec.Mark(1, t0, w1)
	rec.Record(inputevent.KeyDown{Source: inputevent.Source{DeviceID: 7, WindowID: 1}, Platform: keycode.PlatformScancode, Code: 4})
	rec.Record(inputevent.MouseMotion{Source: inputevent.Source{DeviceID: 3, WindowID: 1}, X: 50, Y: 100})
	rec.Mark(2, t0.Add(time.Second), append(w1, screen))
	rec.Record(inputevent.KeyUp{Source: inputevent.Source{DeviceID: 7, WindowID: 1}, Platform: keycode.PlatformScancode, Code: 4})
	rec.Record(inputevent.MouseMotion{Source: inputevent.Source{DeviceID: inputevent.GlobalDevice, WindowID: inputevent.NoWindow}, X: 10, Y: 80})
	rec.Mark(3, t0.Add(2*time.Second), append(w1, screen))
	require.NoError(t, rec.Close())

	rd, err := recorder.NewReader(&buf)
	require.NoError(t, err)

	store := entity.NewMemStore()
	var frames []engine.Frame
	stats, err := Run(t.Context(), rd, store, func(f engine.Frame) {
		frames = append(frames, f)
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Events: 5, Dropped: 1, Passes: 3}, stats)
	require.Len(t, frames, 3)

	assert.Empty(t, frames[0].Keyboards)
	require.Len(t, frames[1].Keyboards, 1)
	assert.True(t, frames[1].Keyboards[0].Current.Down(keycode.A))
	require.Len(t, frames[1].Mice, 1)
	assert.Equal(t, devstate.Vec2{X: 50, Y: 500}, frames[1].Mice[0].Current.Position)

	assert.False(t, frames[2].Keyboards[0].Current.Down(keycode.A))
	require.Len(t, frames[2].Mice, 2)
	global := frames[2].Mice[1]
	assert.Equal(t, inputevent.GlobalDevice, global.DeviceID)
	assert.Equal(t, ScreenWindow, global.WindowID)
	assert.Equal(t, devstate.Vec2{X: 10, Y: 1000}, global.Current.Position)
}

func TestReplayDropsVanishedWindows(t *testing.T) {
	var buf bytes.Buffer
	rec := newRecorder(&buf)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.Mark(1, t0, []window.Context{{ID: 1, Size: devstate.Vec2{X: 800, Y: 600}, Alive: true}})
	rec.Mark(2, t0, nil)
	rec.Record(inputevent.MouseMotion{Source: inputevent.Source{DeviceID: 3, WindowID: 1}, X: 1, Y: 1})
	require.NoError(t, rec.Close())

	rd, err := recorder.NewReader(&buf)
	require.NoError(t, err)

	store := entity.NewMemStore()
	stats, err := Run(t.Context(), rd, store, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 0, store.Len())
}

func newRecorder(buf *bytes.Buffer) *recorder.Recorder {
	return recorder.New(buf, 0)
}
