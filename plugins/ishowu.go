package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/director"
)

const ishowuApp = "iShowU HD"

// IShowU starts and stops iShowU HD recordings. Starting a recording
// registers an end-of-movie action that stops it, unless started with
// "no_auto_stop".
func IShowU() *director.Plugin {
	return &director.Plugin{
		Name: "ishowu",
		Directions: func(d *director.Director) map[string]director.DirectionFunc {
			return map[string]director.DirectionFunc{
				"ishowu_start_recording": func(ctx context.Context, args ...string) (string, error) {
					autoStop := len(args) == 0 || args[0] != "no_auto_stop"
					return "", IShowUStartRecording(ctx, d, autoStop)
				},
				"ishowu_stop_recording": func(ctx context.Context, args ...string) (string, error) {
					return "", ishowuMenuItem(ctx, d, "Edit", "Stop", true)
				},
				"ishowu_hide": func(ctx context.Context, args ...string) (string, error) {
					return "", ishowuMenuItem(ctx, d, ishowuApp, "Hide "+ishowuApp, true)
				},
			}
		},
	}
}

// IShowUStartRecording starts recording and waits for iShowU to settle.
func IShowUStartRecording(ctx context.Context, d *director.Director, autoStop bool) error {
	if err := ishowuMenuItem(ctx, d, "Edit", "Record", true); err != nil {
		return err
	}
	if autoStop {
		d.AtEndOfMovie(func(ctx context.Context) error {
			return ishowuMenuItem(ctx, d, "Edit", "Stop", true)
		})
	}
	return d.Pause(ctx, 3*time.Second)
}

func ishowuMenuItem(ctx context.Context, d *director.Director, menu, item string, hide bool) error {
	hideLine := ""
	if hide {
		hideLine = fmt.Sprintf(`set visible of process "%s" to false`, ishowuApp)
	}

	_, err := d.ExecuteScript(ctx, fmt.Sprintf(`
tell application "%[1]s"
  activate
  tell application "System Events"
    click menu item "%[2]s" of menu "%[3]s" of menu bar item "%[3]s" of menu bar 1 of process "%[1]s"
    %[4]s
  end tell
end tell`, ishowuApp, automation.EscapeDoubleQuotes(item), automation.EscapeDoubleQuotes(menu), hideLine))
	return err
}
