package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Button names a mouse button: "left", "right", "middle" or a numeric
// backend code.
type Button string

const (
	Left   Button = "left"
	Right  Button = "right"
	Middle Button = "middle"
)

var buttonCodes = map[Button]int{
	Left:   1,
	Right:  2,
	Middle: 3,
}

// Code translates the button to the numeric code the automation helper
// expects. Numeric buttons pass through unchanged.
func (b Button) Code() (int, error) {
	if b == "" {
		return buttonCodes[Left], nil
	}
	if code, ok := buttonCodes[Button(strings.ToLower(string(b)))]; ok {
		return code, nil
	}
	if n, err := strconv.Atoi(string(b)); err == nil {
		return n, nil
	}
	return 0, fmt.Errorf("unknown mouse button: %q", string(b))
}

// IsLeft reports whether the button is the primary button.
func (b Button) IsLeft() bool {
	code, err := b.Code()
	return err == nil && code == 1
}

// Modifier is a keyboard modifier for hit and keystroke.
type Modifier string

const (
	ModCommand Modifier = "command"
	ModControl Modifier = "control"
	ModOption  Modifier = "option"
	ModShift   Modifier = "shift"
)

var modifierAliases = map[string]Modifier{
	"command": ModCommand,
	"cmd":     ModCommand,
	Command:   ModCommand,
	"control": ModControl,
	"ctrl":    ModControl,
	Ctrl:      ModControl,
	"option":  ModOption,
	"alt":     ModOption,
	Alt:       ModOption,
	"shift":   ModShift,
	Shift:     ModShift,
}

// ParseModifier accepts modifier names, their common aliases and the key
// codes of the modifier keys.
func ParseModifier(s string) (Modifier, error) {
	if m, ok := modifierAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	if m, ok := modifierAliases[strings.TrimSpace(s)]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown modifier: %q", s)
}

// ParseModifiers parses each name with ParseModifier.
func ParseModifiers(names []string) ([]Modifier, error) {
	mods := make([]Modifier, 0, len(names))
	for _, name := range names {
		m, err := ParseModifier(name)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}
