package driver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ScanF1 is the set 1 scan code of the F1 key.
const ScanF1 uint16 = 0x3B

// scanCodes holds set 1 make codes for the keys that can be replayed.
var scanCodes = map[string]uint16{
	"Escape": 0x01,
	"1":      0x02, "2": 0x03, "3": 0x04, "4": 0x05, "5": 0x06,
	"6": 0x07, "7": 0x08, "8": 0x09, "9": 0x0A, "0": 0x0B,
	"Minus":     0x0C,
	"Equals":    0x0D,
	"Backspace": 0x0E,
	"Tab":       0x0F,
	"Q":         0x10, "W": 0x11, "E": 0x12, "R": 0x13, "T": 0x14,
	"Y": 0x15, "U": 0x16, "I": 0x17, "O": 0x18, "P": 0x19,
	"LeftBracket":  0x1A,
	"RightBracket": 0x1B,
	"Enter":        0x1C,
	"LeftCtrl":     0x1D,
	"A":            0x1E, "S": 0x1F, "D": 0x20, "F": 0x21, "G": 0x22,
	"H": 0x23, "J": 0x24, "K": 0x25, "L": 0x26,
	"Semicolon":  0x27,
	"Apostrophe": 0x28,
	"Grave":      0x29,
	"LeftShift":  0x2A,
	"Backslash":  0x2B,
	"Z":          0x2C, "X": 0x2D, "C": 0x2E, "V": 0x2F, "B": 0x30,
	"N": 0x31, "M": 0x32,
	"Comma":          0x33,
	"Period":         0x34,
	"Slash":          0x35,
	"RightShift":     0x36,
	"NumpadMultiply": 0x37,
	"LeftAlt":        0x38,
	"Space":          0x39,
	"CapsLock":       0x3A,
	"F1":             0x3B, "F2": 0x3C, "F3": 0x3D, "F4": 0x3E, "F5": 0x3F,
	"F6": 0x40, "F7": 0x41, "F8": 0x42, "F9": 0x43, "F10": 0x44,
	"NumLock":    0x45,
	"ScrollLock": 0x46,
	"F11":        0x57,
	"F12":        0x58,
}

var keyNames = func() map[uint16]string {
	names := make(map[uint16]string, len(scanCodes))
	for name, code := range scanCodes {
		names[code] = name
	}
	return names
}()

// ScanCode resolves a key name (case-insensitive) or a hex literal such as
// "0x3B" to a scan code.
func ScanCode(name string) (uint16, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false
	}

	if strings.HasPrefix(strings.ToLower(name), "0x") {
		v, err := strconv.ParseUint(name[2:], 16, 16)
		if err != nil || v == 0 {
			return 0, false
		}
		return uint16(v), true
	}

	for k, code := range scanCodes {
		if strings.EqualFold(k, name) {
			return code, true
		}
	}
	return 0, false
}

// KeyName returns the name of a scan code, or its hex form when unnamed.
func KeyName(code uint16) string {
	if name, ok := keyNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", code)
}

// KeyNames lists every named key ordered by scan code.
func KeyNames() []string {
	names := make([]string, 0, len(scanCodes))
	for name := range scanCodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return scanCodes[names[i]] < scanCodes[names[j]]
	})
	return names
}
