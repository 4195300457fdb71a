package keytrap

import (
	"fmt"
	"strings"
)

// namedKeys maps key names to Windows virtual-key codes for keys that are
// not letters, digits or function keys. Letters, digits and F1-F12 are
// derived arithmetically.
var namedKeys = map[string]uint32{
	"CTRL":      0x11,
	"ALT":       0x12,
	"SHIFT":     0x10,
	"SPACE":     0x20,
	"ENTER":     0x0D,
	"ESC":       0x1B,
	"BACKSPACE": 0x08,
	"TAB":       0x09,
	"CAPSLOCK":  0x14,
	"PAGEUP":    0x21,
	"PAGEDOWN":  0x22,
	"END":       0x23,
	"HOME":      0x24,
	"LEFT":      0x25,
	"UP":        0x26,
	"RIGHT":     0x27,
	"DOWN":      0x28,
	"INSERT":    0x2D,
	"DELETE":    0x2E,
	"PAUSE":     0x13,
}

// KeyName translates a virtual-key code to the symbol name used in unlock
// sequences. Returns "" for keys that have no name here; the caller skips
// those.
func KeyName(vk uint32) string {
	// Modifier variants collapse onto the generic name
	switch vk {
	case 0x11, 0xA2, 0xA3:
		return "CTRL"
	case 0x12, 0xA4, 0xA5:
		return "ALT"
	case 0x10, 0xA0, 0xA1:
		return "SHIFT"
	}

	for name, code := range namedKeys {
		if code == vk {
			return name
		}
	}

	// Letters A-Z and digits 0-9 share their ASCII codes
	if (vk >= 0x41 && vk <= 0x5A) || (vk >= 0x30 && vk <= 0x39) {
		return string(rune(vk))
	}

	// F1-F12
	if vk >= 0x70 && vk <= 0x7B {
		return fmt.Sprintf("F%d", vk-0x6F)
	}

	return ""
}

// VKFromName translates a symbol name back to a virtual-key code.
func VKFromName(name string) (uint32, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	if code, ok := namedKeys[name]; ok {
		return code, nil
	}

	if len(name) == 1 {
		c := name[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return uint32(c), nil
		}
	}

	if strings.HasPrefix(name, "F") && len(name) > 1 {
		var n int
		if _, err := fmt.Sscanf(name, "F%d", &n); err == nil && n >= 1 && n <= 12 {
			return uint32(0x6F + n), nil
		}
	}

	return 0, fmt.Errorf("unknown key name %q", name)
}

// ParseSequence validates and normalizes a list of key names as written in
// config files or flags. Every name must map to a virtual-key code so the
// hook can ever produce it.
func ParseSequence(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("empty key sequence")
	}

	normalized := make([]string, len(names))
	for i, name := range names {
		vk, err := VKFromName(name)
		if err != nil {
			return nil, err
		}
		normalized[i] = KeyName(vk)
	}
	return normalized, nil
}
