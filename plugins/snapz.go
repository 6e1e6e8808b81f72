package plugins

import (
	"context"

	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/types"
)

// snapzMovieButton is where the "Movie..." button sits when the Snapz Pro
// window is flush with the left edge, just under the menu bar.
var snapzMovieButton = director.To(332, 130)

const snapzInvokeScript = `
tell application "Snapz Pro X"
  invoke
end tell`

// SnapzPro records with Snapz Pro X. Snapz has almost no AppleScript
// support, so set up the movie settings beforehand, close its windows and
// leave the main window at the top left of the screen. The captured movie
// is saved by hand once the screenplay ends.
func SnapzPro() *director.Plugin {
	return &director.Plugin{
		Name: "snapz_pro",
		Directions: func(d *director.Director) map[string]director.DirectionFunc {
			return map[string]director.DirectionFunc{
				"snapz_start_recording": func(ctx context.Context, args ...string) (string, error) {
					autoStop := len(args) == 0 || args[0] != "no_auto_stop"
					return "", SnapzStartRecording(ctx, d, autoStop)
				},
				"snapz_stop_recording": script(d, snapzInvokeScript),
			}
		},
	}
}

// SnapzStartRecording opens Snapz, presses "Movie..." and starts the
// capture. With autoStop the recording stops at the end of the movie.
func SnapzStartRecording(ctx context.Context, d *director.Director, autoStop bool) error {
	if _, err := d.ExecuteScript(ctx, snapzInvokeScript); err != nil {
		return err
	}
	if err := d.Cursor(ctx, snapzMovieButton); err != nil {
		return err
	}
	if err := d.Click(ctx, types.Left); err != nil {
		return err
	}
	if err := d.Hit(ctx, types.Enter); err != nil {
		return err
	}

	if autoStop {
		d.AtEndOfMovie(func(ctx context.Context) error {
			_, err := d.ExecuteScript(ctx, snapzInvokeScript)
			return err
		})
	}
	return nil
}
