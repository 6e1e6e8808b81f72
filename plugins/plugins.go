// Package plugins holds the built-in plugins that screenplays load with
// the plugin direction.
package plugins

import (
	"context"
	"fmt"
	"strconv"

	"github.com/castanaut/castanaut/director"
)

// Builtin returns the built-in plugin catalog.
func Builtin() director.Catalog {
	return director.Catalog{
		"safari":    Safari(),
		"terminal":  Terminal(),
		"mousepose": Mousepose(),
		"textmate":  TextMate(),
		"ishowu":    IShowU(),
		"keystack":  Keystack(),
		"snapz_pro": SnapzPro(),
	}
}

// script is a direction that runs fixed AppleScript.
func script(d *director.Director, source string) director.DirectionFunc {
	return func(ctx context.Context, args ...string) (string, error) {
		return d.ExecuteScript(ctx, source)
	}
}

func needArgs(direction string, args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s needs %d argument(s), got %d", direction, n, len(args))
	}
	return nil
}

func intArg(args []string, i, def int) (int, error) {
	if i >= len(args) || args[i] == "" {
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i+1, err)
	}
	return v, nil
}
