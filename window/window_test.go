package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
)

func TestRefreshScansWindows(t *testing.T) {
	store := entity.NewMemStore()
	store.SpawnWindow(1, 800, 600)

	r := NewRegistry()
	assert.False(t, r.Known(1))

	r.Refresh(store)

	ctx, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, Context{ID: 1, Size: devstate.Vec2{X: 800, Y: 600}, Alive: true}, ctx)
	assert.True(t, r.Known(1))
}

func TestRefreshPrunesDestroyedWindows(t *testing.T) {
	store := entity.NewMemStore()
	e := store.SpawnWindow(1, 800, 600)
	r := NewRegistry()
	r.Refresh(store)

	store.Destroy(e)
	r.Refresh(store)

	_, ok := r.Lookup(1)
	assert.False(t, ok)
}

func TestRefreshDuplicateIDKeepsLastSeen(t *testing.T) {
	store := entity.NewMemStore()
	store.SpawnWindow(1, 800, 600)
	store.SpawnWindow(1, 1024, 768)
	r := NewRegistry()

	r.Refresh(store)

	ctx, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, devstate.Vec2{X: 1024, Y: 768}, ctx.Size)
}

func TestRefreshTracksResize(t *testing.T) {
	store := entity.NewMemStore()
	e := store.SpawnWindow(1, 800, 600)
	r := NewRegistry()
	r.Refresh(store)

	store.Attach(e, entity.Window{ID: 1, Width: 640, Height: 480, Alive: true})
	r.Refresh(store)

	ctx, _ := r.Lookup(1)
	assert.Equal(t, devstate.Vec2{X: 640, Y: 480}, ctx.Size)
}

func TestClosingWindowIsNotKnown(t *testing.T) {
	store := entity.NewMemStore()
	e := store.SpawnWindow(1, 800, 600)
	store.Attach(e, entity.Window{ID: 1, Width: 800, Height: 600, Alive: false})
	r := NewRegistry()

	r.Refresh(store)

	_, ok := r.Lookup(1)
	assert.True(t, ok)
	assert.False(t, r.Known(1))
}

func TestVirtualSurvivesRefresh(t *testing.T) {
	store := entity.NewMemStore()
	r := NewRegistry()
	r.SetVirtual(inputevent.NoWindow, devstate.Vec2{X: 1920, Y: 1080})

	r.Refresh(store)

	assert.True(t, r.Known(inputevent.NoWindow))
	assert.Equal(t, []Context{{ID: inputevent.NoWindow, Size: devstate.Vec2{X: 1920, Y: 1080}, Alive: true}}, r.Contexts())

	r.RemoveVirtual(inputevent.NoWindow)
	assert.False(t, r.Known(inputevent.NoWindow))
}
