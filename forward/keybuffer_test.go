package forward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kafji.net/hidstate/keycode"
)

type stroke struct {
	c    keycode.Control
	down bool
	at   time.Duration
}

func TestToggleKeyStroke(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		strokes []stroke
		want    bool
	}{
		{
			name: "double tap",
			strokes: []stroke{
				{keycode.RightCtrl, true, 0},
				{keycode.RightCtrl, false, 50 * time.Millisecond},
				{keycode.RightCtrl, true, 100 * time.Millisecond},
				{keycode.RightCtrl, false, 150 * time.Millisecond},
			},
			want: true,
		},
		{
			name: "other keys in between",
			strokes: []stroke{
				{keycode.RightCtrl, true, 0},
				{keycode.RightCtrl, false, 50 * time.Millisecond},
				{keycode.A, true, 60 * time.Millisecond},
				{keycode.RightCtrl, true, 100 * time.Millisecond},
				{keycode.RightCtrl, false, 150 * time.Millisecond},
			},
			want: true,
		},
		{
			name: "single tap",
			strokes: []stroke{
				{keycode.RightCtrl, true, 0},
				{keycode.RightCtrl, false, 50 * time.Millisecond},
			},
			want: false,
		},
		{
			name: "too slow",
			strokes: []stroke{
				{keycode.RightCtrl, true, 0},
				{keycode.RightCtrl, false, 50 * time.Millisecond},
				{keycode.RightCtrl, true, 500 * time.Millisecond},
				{keycode.RightCtrl, false, 550 * time.Millisecond},
			},
			want: false,
		},
		{
			name: "held",
			strokes: []stroke{
				{keycode.RightCtrl, true, 0},
				{keycode.RightCtrl, false, 50 * time.Millisecond},
				{keycode.RightCtrl, true, 100 * time.Millisecond},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := keyBuffer{toggle: keycode.RightCtrl}
			for _, s := range tt.strokes {
				b.push(s.c, s.down, t0.Add(s.at))
			}
			got, _ := b.toggleKeyStrokeExists(time.Time{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToggleKeyStrokeOnlyOnce(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := keyBuffer{toggle: keycode.RightCtrl}
	for i, down := range []bool{true, false, true, false} {
		b.push(keycode.RightCtrl, down, t0.Add(time.Duration(i)*40*time.Millisecond))
	}

	yes, at := b.toggleKeyStrokeExists(time.Time{})
	assert.True(t, yes)

	// a later key does not re-trigger the same strokes
	b.push(keycode.A, true, t0.Add(200*time.Millisecond))
	again, _ := b.toggleKeyStrokeExists(at)
	assert.False(t, again)
}
