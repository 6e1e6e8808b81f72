package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/director"
)

// Terminal drives Terminal.app.
func Terminal() *director.Plugin {
	return &director.Plugin{
		Name: "terminal",
		Apps: map[string]director.AppHooks{
			"Terminal": {EnsureWindow: `if (count(windows)) < 1 then do script ""`},
		},
		Directions: func(d *director.Director) map[string]director.DirectionFunc {
			return map[string]director.DirectionFunc{
				"terminal_run": func(ctx context.Context, args ...string) (string, error) {
					if err := needArgs("terminal_run", args, 1); err != nil {
						return "", err
					}
					return "", TerminalRun(ctx, d, strings.Join(args, " "))
				},
				"terminal_new_window": script(d, `
tell application "Terminal"
  activate
  do script ""
end tell`),
			}
		},
	}
}

// TerminalRun runs command in the front Terminal window, visibly.
func TerminalRun(ctx context.Context, d *director.Director, command string) error {
	_, err := d.ExecuteScript(ctx, fmt.Sprintf(`
tell application "Terminal"
  do script "%s" in front window
end tell`, automation.EscapeDoubleQuotes(command)))
	return err
}
