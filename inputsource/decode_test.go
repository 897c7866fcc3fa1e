package inputsource

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

func record(size int, typ, code uint16, value int32) []byte {
	b := make([]byte, size)
	body := b[size-8:]
	binary.LittleEndian.PutUint16(body[0:2], typ)
	binary.LittleEndian.PutUint16(body[2:4], code)
	binary.LittleEndian.PutUint32(body[4:8], uint32(value))
	return b
}

type raw struct {
	typ, code uint16
	value     int32
}

func TestParserSplitsRecords(t *testing.T) {
	for _, size := range []int{16, 24} {
		var stream []byte
		stream = append(stream, record(size, evKey, keyA, valueDown)...)
		stream = append(stream, record(size, evRel, relY, -3)...)
		stream = append(stream, record(size, evSyn, synReport, 0)...)

		p := parser{size: size}
		var got []raw
		collect := func(typ, code uint16, value int32) {
			got = append(got, raw{typ, code, value})
		}

		// a partial record is held until the rest arrives
		p.feed(stream[:size+5], collect)
		require.Len(t, got, 1)
		p.feed(stream[size+5:], collect)

		assert.Equal(t, []raw{{evKey, keyA, valueDown}, {evRel, relY, -3}, {evSyn, synReport, 0}}, got, "size %d", size)
	}
}

func decodeAll(d *decoder, raws ...raw) []inputevent.Event {
	var out []inputevent.Event
	for _, r := range raws {
		d.decode(r.typ, r.code, r.value, func(ev inputevent.Event) {
			out = append(out, ev)
		})
	}
	return out
}

func TestDecodeKeys(t *testing.T) {
	d := &decoder{device: 5}
	src := inputevent.Source{DeviceID: 5, WindowID: inputevent.NoWindow}

	got := decodeAll(d,
		raw{evKey, keyA, valueDown},
		raw{evKey, keyA, valueRepeat},
		raw{evKey, keyA, valueUp},
		raw{evSyn, synReport, 0},
	)

	assert.Equal(t, []inputevent.Event{
		inputevent.KeyDown{Source: src, Platform: keycode.PlatformEvdev, Code: keyA},
		inputevent.KeyUp{Source: src, Platform: keycode.PlatformEvdev, Code: keyA},
	}, got)
}

func TestDecodeMouse(t *testing.T) {
	d := &decoder{device: 2, pointer: newPointer(devstate.Vec2{X: 100, Y: 100})}
	src := inputevent.Source{DeviceID: 2, WindowID: inputevent.NoWindow}

	got := decodeAll(d,
		raw{evRel, relX, 3},
		raw{evRel, relY, 4},
		raw{evRel, relX, 2},
		raw{evRel, relWheel, -1},
		raw{evSyn, synReport, 0},
		raw{evKey, btnRight, valueDown},
		raw{evKey, btnSide, valueUp},
		raw{evKey, 0x11f, valueDown},
		raw{evSyn, synReport, 0},
	)

	assert.Equal(t, []inputevent.Event{
		inputevent.MouseMotion{Source: src, X: 55, Y: 54, DX: 5, DY: 4},
		inputevent.MouseWheel{Source: src, DX: 0, DY: -1},
		inputevent.MouseButtonDown{Source: src, Button: 3},
		inputevent.MouseButtonUp{Source: src, Button: 4},
	}, got)
}

func TestDecodeDroppedResets(t *testing.T) {
	d := &decoder{device: 2, pointer: newPointer(devstate.Vec2{X: 100, Y: 100})}

	got := decodeAll(d,
		raw{evRel, relX, 3},
		raw{evSyn, synDropped, 0},
		raw{evSyn, synReport, 0},
	)

	assert.Empty(t, got)
}

func keyBitmap(codes ...int) []byte {
	b := make([]byte, (keyMax+1)/8)
	for _, c := range codes {
		b[c/8] |= 1 << (c % 8)
	}
	return b
}

func TestDecodeDroppedResyncsKeys(t *testing.T) {
	const keyB = 48
	d := &decoder{
		device:   2,
		pointer:  newPointer(devstate.Vec2{X: 100, Y: 100}),
		keyState: func() ([]byte, error) { return keyBitmap(btnLeft), nil },
	}
	src := inputevent.Source{DeviceID: 2, WindowID: inputevent.NoWindow}

	got := decodeAll(d,
		raw{evKey, keyA, valueDown},
		raw{evKey, keyB, valueDown},
		raw{evSyn, synReport, 0},
		raw{evSyn, synDropped, 0},
		// partial frame after the drop
		raw{evKey, keyA, valueUp},
		raw{evRel, relX, 5},
		raw{evSyn, synReport, 0},
		raw{evRel, relX, 3},
		raw{evSyn, synReport, 0},
	)

	assert.Equal(t, []inputevent.Event{
		inputevent.KeyDown{Source: src, Platform: keycode.PlatformEvdev, Code: keyA},
		inputevent.KeyDown{Source: src, Platform: keycode.PlatformEvdev, Code: keyB},
		inputevent.KeyUp{Source: src, Platform: keycode.PlatformEvdev, Code: keyA},
		inputevent.KeyUp{Source: src, Platform: keycode.PlatformEvdev, Code: keyB},
		inputevent.MouseButtonDown{Source: src, Button: 1},
		inputevent.MouseMotion{Source: src, X: 53, Y: 50, DX: 3, DY: 0},
	}, got)
}

func TestDecodeDroppedWithoutKeyStateReleasesHeld(t *testing.T) {
	d := &decoder{device: 2, keyState: func() ([]byte, error) { return nil, errors.New("no device") }}
	src := inputevent.Source{DeviceID: 2, WindowID: inputevent.NoWindow}

	got := decodeAll(d,
		raw{evKey, keyA, valueDown},
		raw{evKey, btnRight, valueDown},
		raw{evSyn, synDropped, 0},
		raw{evSyn, synReport, 0},
	)

	assert.Equal(t, []inputevent.Event{
		inputevent.KeyDown{Source: src, Platform: keycode.PlatformEvdev, Code: keyA},
		inputevent.MouseButtonDown{Source: src, Button: 3},
		inputevent.KeyUp{Source: src, Platform: keycode.PlatformEvdev, Code: keyA},
		inputevent.MouseButtonUp{Source: src, Button: 3},
	}, got)
}

func TestPointerClamps(t *testing.T) {
	p := newPointer(devstate.Vec2{X: 100, Y: 50})

	assert.Equal(t, devstate.Vec2{X: 0, Y: 50}, p.move(-500, 500))
	assert.Equal(t, devstate.Vec2{X: 100, Y: 0}, p.move(1000, -1000))
	assert.Equal(t, devstate.Vec2{X: 90, Y: 10}, p.move(-10, 10))
}

func TestClassify(t *testing.T) {
	bits := func(n ...int) []byte {
		b := make([]byte, (keyMax+1)/8)
		for _, i := range n {
			b[i/8] |= 1 << (i % 8)
		}
		return b
	}

	tests := []struct {
		name string
		ev   []byte
		key  []byte
		rel  []byte
		want capabilities
	}{
		{"keyboard", bits(evKey), bits(keyA), bits(), capabilities{keyboard: true}},
		{"mouse", bits(evKey, evRel), bits(btnLeft), bits(relX, relY), capabilities{mouse: true}},
		{"combo", bits(evKey, evRel), bits(keyA, btnLeft), bits(relX, relY), capabilities{keyboard: true, mouse: true}},
		{"power button", bits(evKey), bits(116), bits(), capabilities{}},
		{"wheel only", bits(evRel), bits(), bits(relWheel), capabilities{}},
		{"short bitmap", []byte{}, nil, nil, capabilities{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.ev, tt.key, tt.rel))
		})
	}
}
