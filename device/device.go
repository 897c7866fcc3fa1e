// Package device tracks the live set of physical devices of one kind.
package device

import (
	"errors"
	"maps"
	"slices"

	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/inputevent"
)

var ErrUnknownWindow = errors.New("unknown window")

// WindowChecker reports whether a window can own new devices.
type WindowChecker interface {
	Known(id inputevent.WindowID) bool
}

// Record is the live state of one device. Entity is zero until the first
// reconciliation materializes it, and is re-resolved every pass.
type Record[S any] struct {
	DeviceID inputevent.DeviceID
	WindowID inputevent.WindowID
	Entity   entity.Entity
	Current  S
	Previous S
}

// Table owns the records of one device kind. It is not safe for concurrent
// use; the engine serializes access.
type Table[S any] struct {
	records map[inputevent.DeviceID]*Record[S]
}

func NewTable[S any]() *Table[S] {
	return &Table[S]{records: make(map[inputevent.DeviceID]*Record[S])}
}

// GetOrCreate returns the record of device, creating a zeroed one owned by
// window when window is known.
func (t *Table[S]) GetOrCreate(device inputevent.DeviceID, window inputevent.WindowID, windows WindowChecker) (*Record[S], error) {
	if r, ok := t.records[device]; ok {
		return r, nil
	}
	if !windows.Known(window) {
		return nil, ErrUnknownWindow
	}
	r := &Record[S]{DeviceID: device, WindowID: window}
	t.records[device] = r
	return r, nil
}

func (t *Table[S]) Get(device inputevent.DeviceID) (*Record[S], bool) {
	r, ok := t.records[device]
	return r, ok
}

// Remove deletes the record of device and returns it so the caller can
// release its entity.
func (t *Table[S]) Remove(device inputevent.DeviceID) (Record[S], bool) {
	r, ok := t.records[device]
	if !ok {
		return Record[S]{}, false
	}
	delete(t.records, device)
	return *r, true
}

// Each calls fn for every record in ascending device id order.
func (t *Table[S]) Each(fn func(r *Record[S])) {
	for _, id := range slices.Sorted(maps.Keys(t.records)) {
		fn(t.records[id])
	}
}

func (t *Table[S]) Len() int {
	return len(t.records)
}
