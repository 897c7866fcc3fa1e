// Package inputsource captures keyboard and mouse input outside any window,
// straight from the Linux evdev nodes.
package inputsource

import (
	"encoding/binary"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
	"kafji.net/hidstate/logging"
)

var slog = logging.NewLogger("hidstate/inputsource")

// https://www.kernel.org/doc/html/latest/input/event-codes.html
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport  = 0x00
	synDropped = 0x03

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	keyA = 30

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
	btnSide   = 0x113
	btnExtra  = 0x114

	// first code past the keyboard keys
	keyFirstButton = 0x100

	keyMax = 0x2ff

	valueUp     = 0
	valueDown   = 1
	valueRepeat = 2
)

// buttons maps evdev button codes to the ids SDL reports, so window and
// global mice agree on numbering.
var buttons = map[uint16]uint8{
	btnLeft:   1,
	btnMiddle: 2,
	btnRight:  3,
	btnSide:   4,
	btnExtra:  5,
}

// parser splits a byte stream into input_event records. The record size
// depends on the platform's timeval.
type parser struct {
	size int
	buf  []byte
}

func (p *parser) feed(chunk []byte, fn func(typ, code uint16, value int32)) {
	p.buf = append(p.buf, chunk...)
	for len(p.buf) >= p.size {
		ev := p.buf[:p.size]
		// the event body sits after the timestamp
		body := ev[p.size-8:]
		fn(binary.LittleEndian.Uint16(body[0:2]),
			binary.LittleEndian.Uint16(body[2:4]),
			int32(binary.LittleEndian.Uint32(body[4:8])))
		p.buf = p.buf[p.size:]
	}
	if len(p.buf) == 0 {
		p.buf = p.buf[:0:0]
	}
}

// pointer is the virtual cursor relative mice move over, clamped to the
// screen. Origin is top-left.
type pointer struct {
	screen devstate.Vec2
	pos    devstate.Vec2
}

func newPointer(screen devstate.Vec2) *pointer {
	return &pointer{screen: screen, pos: devstate.Vec2{X: screen.X / 2, Y: screen.Y / 2}}
}

func (p *pointer) move(dx, dy float32) devstate.Vec2 {
	p.pos.X = clamp(p.pos.X+dx, 0, p.screen.X)
	p.pos.Y = clamp(p.pos.Y+dy, 0, p.screen.Y)
	return p.pos
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

// decoder turns one device's evdev records into events. Relative motion and
// wheel steps are accumulated until the frame's SYN_REPORT.
type decoder struct {
	device  inputevent.DeviceID
	pointer *pointer

	// keyState reads the device's key bitmap (EVIOCGKEY). May be nil.
	keyState func() ([]byte, error)

	dx, dy        int32
	wheel, hwheel int32

	// keys and buttons last reported down
	held    map[uint16]bool
	syncing bool
}

func (d *decoder) source() inputevent.Source {
	return inputevent.Source{DeviceID: d.device, WindowID: inputevent.NoWindow}
}

func (d *decoder) decode(typ, code uint16, value int32, emit func(inputevent.Event)) {
	// after SYN_DROPPED everything up to the next SYN_REPORT is partial
	if d.syncing && !(typ == evSyn && code == synReport) {
		return
	}

	switch typ {
	case evKey:
		if value == valueRepeat {
			return
		}
		d.key(code, value == valueDown, emit)

	case evRel:
		switch code {
		case relX:
			d.dx += value
		case relY:
			d.dy += value
		case relWheel:
			d.wheel += value
		case relHWheel:
			d.hwheel += value
		}

	case evSyn:
		switch code {
		case synReport:
			if d.syncing {
				d.syncing = false
				d.resync(emit)
				return
			}
			d.flush(emit)
		case synDropped:
			d.dx, d.dy, d.wheel, d.hwheel = 0, 0, 0, 0
			d.syncing = true
		}
	}
}

func (d *decoder) key(code uint16, down bool, emit func(inputevent.Event)) {
	var ev inputevent.Event
	if code < keyFirstButton {
		if down {
			ev = inputevent.KeyDown{Source: d.source(), Platform: keycode.PlatformEvdev, Code: uint32(code)}
		} else {
			ev = inputevent.KeyUp{Source: d.source(), Platform: keycode.PlatformEvdev, Code: uint32(code)}
		}
	} else {
		id, ok := buttons[code]
		if !ok {
			return
		}
		if down {
			ev = inputevent.MouseButtonDown{Source: d.source(), Button: id}
		} else {
			ev = inputevent.MouseButtonUp{Source: d.source(), Button: id}
		}
	}

	if down {
		if d.held == nil {
			d.held = make(map[uint16]bool)
		}
		d.held[code] = true
	} else {
		delete(d.held, code)
	}
	emit(ev)
}

// resync reports the difference between what was last reported and the
// device's key bitmap. When the bitmap cannot be read every held key is
// released.
func (d *decoder) resync(emit func(inputevent.Event)) {
	var state []byte
	if d.keyState != nil {
		var err error
		state, err = d.keyState()
		if err != nil {
			slog.Warn("failed to read key state", "device", d.device, "error", err)
			state = nil
		}
	}

	for code := uint16(0); code <= keyMax; code++ {
		down := testBit(state, int(code))
		if down == d.held[code] {
			continue
		}
		d.key(code, down, emit)
	}
}

func (d *decoder) flush(emit func(inputevent.Event)) {
	if (d.dx != 0 || d.dy != 0) && d.pointer != nil {
		dx, dy := float32(d.dx), float32(d.dy)
		pos := d.pointer.move(dx, dy)
		emit(inputevent.MouseMotion{Source: d.source(), X: pos.X, Y: pos.Y, DX: dx, DY: dy})
	}
	if d.wheel != 0 || d.hwheel != 0 {
		emit(inputevent.MouseWheel{Source: d.source(), DX: float32(d.hwheel), DY: float32(d.wheel)})
	}
	d.dx, d.dy, d.wheel, d.hwheel = 0, 0, 0, 0
}

type capabilities struct {
	keyboard bool
	mouse    bool
}

// classify reads the EVIOCGBIT bitmaps of a device.
func classify(evBits, keyBits, relBits []byte) capabilities {
	var c capabilities
	if testBit(evBits, evKey) && testBit(keyBits, keyA) {
		c.keyboard = true
	}
	if testBit(evBits, evRel) && testBit(relBits, relX) && testBit(relBits, relY) && testBit(keyBits, btnLeft) {
		c.mouse = true
	}
	return c
}

func testBit(bits []byte, n int) bool {
	i := n / 8
	if i >= len(bits) {
		return false
	}
	return bits[i]&(1<<(n%8)) != 0
}
