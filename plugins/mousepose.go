package plugins

import (
	"context"

	"github.com/castanaut/castanaut/director"
)

// Mousepose controls the halo of Boinx Mousepose. Configure Mousepose
// before running the screenplay; the plugin only starts and stops the
// effect.
func Mousepose() *director.Plugin {
	return &director.Plugin{
		Name: "mousepose",
		Directions: func(d *director.Director) map[string]director.DirectionFunc {
			return map[string]director.DirectionFunc{
				"highlight": script(d, highlightScript),
				"dim":       script(d, dimScript),
			}
		},
	}
}

const (
	highlightScript = `
tell application "Mousepose"
  start effect
end tell`
	dimScript = `
tell application "Mousepose"
  stop effect
end tell`
)

// Highlight puts a halo around the cursor while block runs.
func Highlight(ctx context.Context, d *director.Director, block func(ctx context.Context) error) error {
	if _, err := d.ExecuteScript(ctx, highlightScript); err != nil {
		return err
	}
	blockErr := block(ctx)
	if _, err := d.ExecuteScript(ctx, dimScript); err != nil && blockErr == nil {
		return err
	}
	return blockErr
}
