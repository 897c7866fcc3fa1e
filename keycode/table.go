package keycode

import "fmt"

type row struct {
	control  Control
	name     string
	scancode uint32
	evdev    uint32
	windows  uint32
}

// https://usb.org/sites/default/files/hut1_5.pdf (keyboard page 0x07)
// https://github.com/torvalds/linux/blob/master/include/uapi/linux/input-event-codes.h
// https://learn.microsoft.com/en-us/windows/win32/inputdev/virtual-key-codes
var table = []row{
	{Escape, "Escape", 41, 1, 0x1B},

	{F1, "F1", 58, 59, 0x70},
	{F2, "F2", 59, 60, 0x71},
	{F3, "F3", 60, 61, 0x72},
	{F4, "F4", 61, 62, 0x73},
	{F5, "F5", 62, 63, 0x74},
	{F6, "F6", 63, 64, 0x75},
	{F7, "F7", 64, 65, 0x76},
	{F8, "F8", 65, 66, 0x77},
	{F9, "F9", 66, 67, 0x78},
	{F10, "F10", 67, 68, 0x79},
	{F11, "F11", 68, 87, 0x7A},
	{F12, "F12", 69, 88, 0x7B},

	{PrintScreen, "PrintScreen", 70, 99, 0x2C},
	{ScrollLock, "ScrollLock", 71, 70, 0x91},
	{PauseBreak, "PauseBreak", 72, 119, 0x13},

	{Grave, "Grave", 53, 41, 0xC0},

	{D1, "1", 30, 2, 0x31},
	{D2, "2", 31, 3, 0x32},
	{D3, "3", 32, 4, 0x33},
	{D4, "4", 33, 5, 0x34},
	{D5, "5", 34, 6, 0x35},
	{D6, "6", 35, 7, 0x36},
	{D7, "7", 36, 8, 0x37},
	{D8, "8", 37, 9, 0x38},
	{D9, "9", 38, 10, 0x39},
	{D0, "0", 39, 11, 0x30},

	{Minus, "Minus", 45, 12, 0xBD},
	{Equal, "Equal", 46, 13, 0xBB},

	{A, "A", 4, 30, 0x41},
	{B, "B", 5, 48, 0x42},
	{C, "C", 6, 46, 0x43},
	{D, "D", 7, 32, 0x44},
	{E, "E", 8, 18, 0x45},
	{F, "F", 9, 33, 0x46},
	{G, "G", 10, 34, 0x47},
	{H, "H", 11, 35, 0x48},
	{I, "I", 12, 23, 0x49},
	{J, "J", 13, 36, 0x4A},
	{K, "K", 14, 37, 0x4B},
	{L, "L", 15, 38, 0x4C},
	{M, "M", 16, 50, 0x4D},
	{N, "N", 17, 49, 0x4E},
	{O, "O", 18, 24, 0x4F},
	{P, "P", 19, 25, 0x50},
	{Q, "Q", 20, 16, 0x51},
	{R, "R", 21, 19, 0x52},
	{S, "S", 22, 31, 0x53},
	{T, "T", 23, 20, 0x54},
	{U, "U", 24, 22, 0x55},
	{V, "V", 25, 47, 0x56},
	{W, "W", 26, 17, 0x57},
	{X, "X", 27, 45, 0x58},
	{Y, "Y", 28, 21, 0x59},
	{Z, "Z", 29, 44, 0x5A},

	{LeftBrace, "LeftBrace", 47, 26, 0xDB},
	{RightBrace, "RightBrace", 48, 27, 0xDD},

	{SemiColon, "SemiColon", 51, 39, 0xBA},
	{Apostrophe, "Apostrophe", 52, 40, 0xDE},

	{Comma, "Comma", 54, 51, 0xBC},
	{Dot, "Dot", 55, 52, 0xBE},
	{Slash, "Slash", 56, 53, 0xBF},

	{Backspace, "Backspace", 42, 14, 0x08},
	{BackSlash, "BackSlash", 49, 43, 0xDC},
	{Enter, "Enter", 40, 28, 0x0D},

	{Space, "Space", 44, 57, 0x20},

	{Tab, "Tab", 43, 15, 0x09},
	{CapsLock, "CapsLock", 57, 58, 0x14},

	{LeftShift, "LeftShift", 225, 42, 0xA0},
	{RightShift, "RightShift", 229, 54, 0xA1},

	{LeftCtrl, "LeftCtrl", 224, 29, 0xA2},
	{RightCtrl, "RightCtrl", 228, 97, 0xA3},

	{LeftAlt, "LeftAlt", 226, 56, 0xA4},
	{RightAlt, "RightAlt", 230, 100, 0xA5},

	{LeftMeta, "LeftMeta", 227, 125, 0x5B},
	{RightMeta, "RightMeta", 231, 126, 0x5C},

	{Insert, "Insert", 73, 110, 0x2D},
	{Delete, "Delete", 76, 111, 0x2E},

	{Home, "Home", 74, 102, 0x24},
	{End, "End", 77, 107, 0x23},

	{PageUp, "PageUp", 75, 104, 0x21},
	{PageDown, "PageDown", 78, 109, 0x22},

	{Up, "Up", 82, 103, 0x26},
	{Left, "Left", 80, 105, 0x25},
	{Down, "Down", 81, 108, 0x28},
	{Right, "Right", 79, 106, 0x27},

	{NumLock, "NumLock", 83, 69, 0x90},
	{KP0, "KP0", 98, 82, 0x60},
	{KP1, "KP1", 89, 79, 0x61},
	{KP2, "KP2", 90, 80, 0x62},
	{KP3, "KP3", 91, 81, 0x63},
	{KP4, "KP4", 92, 75, 0x64},
	{KP5, "KP5", 93, 76, 0x65},
	{KP6, "KP6", 94, 77, 0x66},
	{KP7, "KP7", 95, 71, 0x67},
	{KP8, "KP8", 96, 72, 0x68},
	{KP9, "KP9", 97, 73, 0x69},
	{KPDivide, "KPDivide", 84, 98, 0x6F},
	{KPMultiply, "KPMultiply", 85, 55, 0x6A},
	{KPMinus, "KPMinus", 86, 74, 0x6D},
	{KPPlus, "KPPlus", 87, 78, 0x6B},
	// windows reports keypad enter as VK_RETURN with the extended flag only
	{KPEnter, "KPEnter", 88, 96, 0},
	{KPDot, "KPDot", 99, 83, 0x6E},

	{Menu, "Menu", 101, 127, 0x5D},
}

var (
	rows  [ControlCount]row
	names [ControlCount]string

	fromScancode = make(map[uint32]Control, len(table))
	fromEvdev    = make(map[uint32]Control, len(table))
	fromWindows  = make(map[uint32]Control, len(table))
)

func init() {
	names[Unknown] = "Unknown"
	for _, r := range table {
		if rows[r.control].control != Unknown {
			panic(fmt.Sprintf("keycode: duplicate row for %s", r.name))
		}
		rows[r.control] = r
		names[r.control] = r.name
		register(fromScancode, r.scancode, r)
		register(fromEvdev, r.evdev, r)
		register(fromWindows, r.windows, r)
	}
}

func register(m map[uint32]Control, code uint32, r row) {
	if code == 0 {
		return
	}
	if prev, ok := m[code]; ok {
		panic(fmt.Sprintf("keycode: code 0x%x maps to both %s and %s", code, names[prev], r.name))
	}
	m[code] = r.control
}
