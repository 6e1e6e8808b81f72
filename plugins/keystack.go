package plugins

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/types"
)

// Keystack sends raw System Events key presses with any combination of
// modifiers, for shortcuts like command-tab that hit cannot express.
// Key codes follow the US layout.
//
// The _using variants require at least one modifier.
func Keystack() *director.Plugin {
	return &director.Plugin{
		Name: "keystack",
		Directions: func(d *director.Director) map[string]director.DirectionFunc {
			return map[string]director.DirectionFunc{
				"keycode":                 keystack(d, "keycode", keyCode, false),
				"keycode_using":           keystack(d, "keycode_using", keyCode, true),
				"keystroke":               keystack(d, "keystroke", keyText, false),
				"keystroke_using":         keystack(d, "keystroke_using", keyText, true),
				"keystroke_literal":       keystack(d, "keystroke_literal", keyLiteral, false),
				"keystroke_literal_using": keystack(d, "keystroke_literal_using", keyLiteral, true),
			}
		},
	}
}

// literalKeys are the AppleScript text constants keystroke accepts bare.
var literalKeys = map[string]bool{
	"return":   true,
	"tab":      true,
	"space":    true,
	"linefeed": true,
	"quote":    true,
}

func keyCode(k string) (string, error) {
	code, err := strconv.Atoi(strings.TrimSpace(k))
	if err != nil || code < 0 {
		return "", fmt.Errorf("key code must be a non-negative integer, got %q", k)
	}
	return "key code " + strconv.Itoa(code), nil
}

func keyText(k string) (string, error) {
	return `keystroke "` + automation.EscapeDoubleQuotes(k) + `"`, nil
}

func keyLiteral(k string) (string, error) {
	if !literalKeys[k] {
		return "", fmt.Errorf("unknown keystroke literal %q", k)
	}
	return "keystroke " + k, nil
}

func keystack(d *director.Director, direction string, press func(string) (string, error), needMods bool) director.DirectionFunc {
	return func(ctx context.Context, args ...string) (string, error) {
		if err := needArgs(direction, args, 1); err != nil {
			return "", err
		}
		action, err := press(args[0])
		if err != nil {
			return "", err
		}

		mods, err := types.ParseModifiers(args[1:])
		if err != nil {
			return "", err
		}
		if needMods && len(mods) == 0 {
			return "", fmt.Errorf("%s needs at least one modifier", direction)
		}

		return d.ExecuteScript(ctx, `tell application "System Events" to `+action+usingClause(mods))
	}
}

func usingClause(mods []types.Modifier) string {
	if len(mods) == 0 {
		return ""
	}
	downs := make([]string, len(mods))
	for i, m := range mods {
		downs[i] = string(m) + " down"
	}
	return " using {" + strings.Join(downs, ", ") + "}"
}
