package recorder

import (
	"math/rand/v2"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

// KeyScrambler swaps every key for another key of the same platform, one
// fixed permutation per scrambler. Timing and press/release pairing
// survive; what was typed does not.
type KeyScrambler struct {
	perm map[keycode.Platform]map[uint32]uint32
}

func NewKeyScrambler(rng *rand.Rand) *KeyScrambler {
	s := &KeyScrambler{perm: make(map[keycode.Platform]map[uint32]uint32)}
	for _, p := range []keycode.Platform{keycode.PlatformScancode, keycode.PlatformEvdev, keycode.PlatformWindows} {
		var codes []uint32
		for c := keycode.Control(1); c < keycode.ControlCount; c++ {
			if code, ok := keycode.Code(p, c); ok {
				codes = append(codes, code)
			}
		}
		shuffled := append([]uint32(nil), codes...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		m := make(map[uint32]uint32, len(codes))
		for i, code := range codes {
			m[code] = shuffled[i]
		}
		s.perm[p] = m
	}
	return s
}

// Code maps one key code. Unmapped codes come back unchanged.
func (s *KeyScrambler) Code(p keycode.Platform, code uint32) uint32 {
	if to, ok := s.perm[p][code]; ok {
		return to
	}
	return code
}

// Scramble is a [Rewrite] function.
func (s *KeyScrambler) Scramble(e Entry) Entry {
	switch ev := e.Event.(type) {
	case inputevent.KeyDown:
		ev.Code = s.Code(ev.Platform, ev.Code)
		e.Event = ev
	case inputevent.KeyUp:
		ev.Code = s.Code(ev.Platform, ev.Code)
		e.Event = ev
	}
	return e
}
