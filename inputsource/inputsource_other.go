//go:build !linux

package inputsource

import (
	"errors"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
)

var ErrUnsupported = errors.New("global input capture is only supported on linux")

type Config struct {
	Dir     string
	Grab    bool
	Screen  devstate.Vec2
	Backlog int
}

type Handle struct{}

func Start(cfg Config) (*Handle, error) {
	return nil, ErrUnsupported
}

func (h *Handle) Inputs() <-chan inputevent.Event { return nil }
func (h *Handle) Error() error                    { return ErrUnsupported }
func (h *Handle) Stop()                           {}
func (h *Handle) SetGrab(flag bool)               {}
