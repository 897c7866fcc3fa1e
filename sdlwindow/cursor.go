package sdlwindow

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"kafji.net/hidstate/devstate"
)

var systemCursors = map[devstate.Cursor]sdl.SystemCursor{
	devstate.CursorArrow:     sdl.SYSTEM_CURSOR_ARROW,
	devstate.CursorIBeam:     sdl.SYSTEM_CURSOR_IBEAM,
	devstate.CursorWait:      sdl.SYSTEM_CURSOR_WAIT,
	devstate.CursorCrosshair: sdl.SYSTEM_CURSOR_CROSSHAIR,
	devstate.CursorWaitArrow: sdl.SYSTEM_CURSOR_WAITARROW,
	devstate.CursorSizeNWSE:  sdl.SYSTEM_CURSOR_SIZENWSE,
	devstate.CursorSizeNESW:  sdl.SYSTEM_CURSOR_SIZENESW,
	devstate.CursorSizeWE:    sdl.SYSTEM_CURSOR_SIZEWE,
	devstate.CursorSizeNS:    sdl.SYSTEM_CURSOR_SIZENS,
	devstate.CursorSizeAll:   sdl.SYSTEM_CURSOR_SIZEALL,
	devstate.CursorNo:        sdl.SYSTEM_CURSOR_NO,
	devstate.CursorHand:      sdl.SYSTEM_CURSOR_HAND,
}

// Cursors selects SDL system cursors. SDL cursor calls belong on the main
// thread, which is where the engine's passes run.
type Cursors struct {
	cache  map[devstate.Cursor]*sdl.Cursor
	hidden bool
}

func NewCursors() *Cursors {
	return &Cursors{cache: make(map[devstate.Cursor]*sdl.Cursor)}
}

func (c *Cursors) SetCursor(cur devstate.Cursor) error {
	if cur == devstate.CursorHidden {
		if _, err := sdl.ShowCursor(sdl.DISABLE); err != nil {
			return err
		}
		c.hidden = true
		return nil
	}

	id, ok := systemCursors[cur]
	if !ok {
		return fmt.Errorf("no system cursor for %v", cur)
	}
	sc, ok := c.cache[cur]
	if !ok {
		sc = sdl.CreateSystemCursor(id)
		if sc == nil {
			return fmt.Errorf("failed to create cursor %v: %w", cur, sdl.GetError())
		}
		c.cache[cur] = sc
	}
	sdl.SetCursor(sc)

	if c.hidden {
		if _, err := sdl.ShowCursor(sdl.ENABLE); err != nil {
			return err
		}
		c.hidden = false
	}
	return nil
}

func (c *Cursors) Free() {
	for cur, sc := range c.cache {
		sdl.FreeCursor(sc)
		delete(c.cache, cur)
	}
}
