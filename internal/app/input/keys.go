package input

import (
	"strings"

	"github.com/dkeye/RemoteDesk/internal/protocol"
)

var keyNames = map[string]string{
	"Enter":      "enter",
	"Tab":        "tab",
	"Escape":     "esc",
	"Backspace":  "backspace",
	"Delete":     "delete",
	"ArrowUp":    "up",
	"ArrowDown":  "down",
	"ArrowLeft":  "left",
	"ArrowRight": "right",
	"Home":       "home",
	"End":        "end",
	"PageUp":     "pageup",
	"PageDown":   "pagedown",
	"Insert":     "insert",
	"CapsLock":   "capslock",
	"NumLock":    "numlock",
	"ScrollLock": "scrolllock",
	" ":          "space",
	"F1":         "f1",
	"F2":         "f2",
	"F3":         "f3",
	"F4":         "f4",
	"F5":         "f5",
	"F6":         "f6",
	"F7":         "f7",
	"F8":         "f8",
	"F9":         "f9",
	"F10":        "f10",
	"F11":        "f11",
	"F12":        "f12",
}

// NormalizeKey maps a browser KeyboardEvent.key to the injector key name.
func NormalizeKey(key string) string {
	if k, ok := keyNames[key]; ok {
		return k
	}
	return strings.ToLower(key)
}

// Chord orders modifiers ctrl, shift, alt, win before the key.
func Chord(key string, m protocol.Modifiers) []string {
	k := NormalizeKey(key)
	if k == "" {
		return nil
	}
	keys := make([]string, 0, 5)
	if m.Ctrl {
		keys = append(keys, "ctrl")
	}
	if m.Shift {
		keys = append(keys, "shift")
	}
	if m.Alt {
		keys = append(keys, "alt")
	}
	if m.Meta {
		keys = append(keys, "win")
	}
	return append(keys, k)
}
