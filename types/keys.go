package types

import "strings"

// Virtual key codes for hit, as understood by the automation helper and
// System Events. US keyboard layout.
const (
	Return    = "0x24"
	Enter     = "0x4C"
	Tab       = "0x30"
	Space     = "0x31"
	Backspace = "0x33"
	Esc       = "0x35"

	Shift    = "0x38"
	CapsLock = "0x39"
	Alt      = "0x3A"
	Ctrl     = "0x3B"
	Command  = "0x37"

	LArrow = "0x7B"
	RArrow = "0x7C"
	DArrow = "0x7D"
	UArrow = "0x7E"

	Insert   = "0x72"
	Home     = "0x73"
	PageUp   = "0x74"
	Delete   = "0x75"
	End      = "0x77"
	PageDown = "0x79"

	F1  = "0x7A"
	F2  = "0x78"
	F3  = "0x63"
	F4  = "0x76"
	F5  = "0x60"
	F6  = "0x61"
	F7  = "0x62"
	F8  = "0x64"
	F9  = "0x65"
	F10 = "0x6D"
	F11 = "0x67"
	F12 = "0x6F"
)

// KeyNames maps symbolic names to key codes, for screenplays and the CLI.
var KeyNames = map[string]string{
	"return":    Return,
	"enter":     Enter,
	"tab":       Tab,
	"space":     Space,
	"backspace": Backspace,
	"esc":       Esc,
	"shift":     Shift,
	"capslock":  CapsLock,
	"alt":       Alt,
	"ctrl":      Ctrl,
	"command":   Command,
	"larrow":    LArrow,
	"rarrow":    RArrow,
	"darrow":    DArrow,
	"uarrow":    UArrow,
	"insert":    Insert,
	"home":      Home,
	"pageup":    PageUp,
	"delete":    Delete,
	"end":       End,
	"pagedown":  PageDown,
	"f1":        F1,
	"f2":        F2,
	"f3":        F3,
	"f4":        F4,
	"f5":        F5,
	"f6":        F6,
	"f7":        F7,
	"f8":        F8,
	"f9":        F9,
	"f10":       F10,
	"f11":       F11,
	"f12":       F12,
}

// ResolveKey turns a symbolic key name into its code. Literal characters and
// codes are returned unchanged.
func ResolveKey(key string) string {
	if len(key) > 1 {
		if code, ok := KeyNames[strings.ToLower(key)]; ok {
			return code
		}
	}
	return key
}

// IsKeyCode reports whether key is a hexadecimal key code such as "0x24".
func IsKeyCode(key string) bool {
	return strings.HasPrefix(key, "0x") && len(key) > 2
}
