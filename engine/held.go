package engine

import (
	"cmp"
	"slices"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

type heldKey struct {
	platform keycode.Platform
	code     uint32
}

// heldInputs remembers which keys and buttons each physical device behind
// the global hook holds, so that unplugging one releases what it pressed.
type heldInputs struct {
	keys    map[inputevent.DeviceID]map[heldKey]struct{}
	buttons map[inputevent.DeviceID]map[uint8]struct{}
}

func newHeldInputs() *heldInputs {
	return &heldInputs{
		keys:    make(map[inputevent.DeviceID]map[heldKey]struct{}),
		buttons: make(map[inputevent.DeviceID]map[uint8]struct{}),
	}
}

func (h *heldInputs) track(ev inputevent.Event) {
	switch ev := ev.(type) {
	case inputevent.KeyDown:
		addHeld(h.keys, ev.DeviceID, heldKey{ev.Platform, ev.Code})
	case inputevent.KeyUp:
		delete(h.keys[ev.DeviceID], heldKey{ev.Platform, ev.Code})
	case inputevent.MouseButtonDown:
		addHeld(h.buttons, ev.DeviceID, ev.Button)
	case inputevent.MouseButtonUp:
		delete(h.buttons[ev.DeviceID], ev.Button)
	}
}

func addHeld[K comparable](m map[inputevent.DeviceID]map[K]struct{}, device inputevent.DeviceID, k K) {
	set, ok := m[device]
	if !ok {
		set = make(map[K]struct{})
		m[device] = set
	}
	set[k] = struct{}{}
}

// removeKeyboard forgets device and returns the key releases it leaves
// behind. Keys another device still holds stay down.
func (h *heldInputs) removeKeyboard(device inputevent.DeviceID) []inputevent.Event {
	keys := orphaned(h.keys, device)
	slices.SortFunc(keys, func(a, b heldKey) int {
		return cmp.Or(cmp.Compare(a.platform, b.platform), cmp.Compare(a.code, b.code))
	})
	out := make([]inputevent.Event, 0, len(keys))
	for _, k := range keys {
		out = append(out, inputevent.KeyUp{Source: inputevent.Source{DeviceID: device}, Platform: k.platform, Code: k.code})
	}
	return out
}

// removeMouse is removeKeyboard for buttons.
func (h *heldInputs) removeMouse(device inputevent.DeviceID) []inputevent.Event {
	buttons := orphaned(h.buttons, device)
	slices.Sort(buttons)
	out := make([]inputevent.Event, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, inputevent.MouseButtonUp{Source: inputevent.Source{DeviceID: device}, Button: b})
	}
	return out
}

func orphaned[K comparable](m map[inputevent.DeviceID]map[K]struct{}, device inputevent.DeviceID) []K {
	set := m[device]
	delete(m, device)

	var out []K
	for k := range set {
		shared := false
		for _, other := range m {
			if _, ok := other[k]; ok {
				shared = true
				break
			}
		}
		if !shared {
			out = append(out, k)
		}
	}
	return out
}
