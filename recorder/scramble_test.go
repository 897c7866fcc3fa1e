package recorder

import (
	"bytes"
	"io"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

func TestKeyScramblerIsPermutation(t *testing.T) {
	s := NewKeyScrambler(rand.New(rand.NewPCG(1, 2)))

	for _, p := range []keycode.Platform{keycode.PlatformScancode, keycode.PlatformEvdev, keycode.PlatformWindows} {
		seen := make(map[uint32]bool)
		for c := keycode.Control(1); c < keycode.ControlCount; c++ {
			code, ok := keycode.Code(p, c)
			if !ok {
				continue
			}
			to := s.Code(p, code)
			_, err := keycode.Translate(p, to)
			assert.NoError(t, err, "%s 0x%x", p, to)
			assert.False(t, seen[to], "%s 0x%x mapped twice", p, to)
			seen[to] = true
		}
	}

	assert.Equal(t, uint32(0xFFFF), s.Code(keycode.PlatformScancode, 0xFFFF))
}

func TestRewriteScramblesKeys(t *testing.T) {
	var buf bytes.Buffer
	rec := New(&buf, 0)

	src := inputevent.Source{DeviceID: 7, WindowID: 1}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec.Record(inputevent.KeyDown{Source: src, Platform: keycode.PlatformScancode, Code: 4})
	rec.Record(inputevent.KeyUp{Source: src, Platform: keycode.PlatformScancode, Code: 4})
	rec.Record(inputevent.MouseWheel{Source: src, DY: 1})
	rec.Mark(1, at, nil)
	require.NoError(t, rec.Close())

	rd, err := NewReader(&buf)
	require.NoError(t, err)

	s := NewKeyScrambler(rand.New(rand.NewPCG(3, 4)))
	var out bytes.Buffer
	require.NoError(t, Rewrite(rd, &out, s.Scramble))

	rd2, err := NewReader(&out)
	require.NoError(t, err)
	assert.Equal(t, rec.Session(), rd2.Session())

	var got []Entry
	for {
		e, err := rd2.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, e)
	}

	require.Len(t, got, 4)
	want := s.Code(keycode.PlatformScancode, 4)
	assert.Equal(t, inputevent.KeyDown{Source: src, Platform: keycode.PlatformScancode, Code: want}, got[0].Event)
	assert.Equal(t, inputevent.KeyUp{Source: src, Platform: keycode.PlatformScancode, Code: want}, got[1].Event)
	assert.Equal(t, uint64(2), got[1].Seq)
	assert.Equal(t, inputevent.MouseWheel{Source: src, DY: 1}, got[2].Event)
	assert.Equal(t, EntryPass, got[3].Type)
	assert.True(t, at.Equal(got[3].At))
}
