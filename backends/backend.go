package backends

import (
	"context"

	"github.com/castanaut/castanaut/types"
)

// Backend implements the primitive directions for one OS/version. A backend
// declines a direction, or an option of one, by returning a
// *types.NotSupportedError.
type Backend interface {
	Label() string

	Cursor(ctx context.Context, to types.Point) error
	CursorLocation(ctx context.Context) (types.Point, error)

	Click(ctx context.Context, btn types.Button) error
	DoubleClick(ctx context.Context, btn types.Button) error
	TripleClick(ctx context.Context, btn types.Button) error
	MouseDown(ctx context.Context, btn types.Button) error
	MouseUp(ctx context.Context, btn types.Button) error
	Drag(ctx context.Context, to types.Point) error

	Type(ctx context.Context, text string, opts types.Options) error
	Hit(ctx context.Context, key string, mods ...types.Modifier) error

	Launch(ctx context.Context, app string, opts LaunchOptions) error
	ScreenSize(ctx context.Context) (types.Coordinate, error)
	Say(ctx context.Context, text string) error
}

// Host is what a backend needs from the Director: the opaque shell and
// AppleScript boundaries.
type Host interface {
	Run(ctx context.Context, command string) (string, error)
	ExecuteScript(ctx context.Context, source string) (string, error)
}

// LaunchOptions carries the optional window placement and the per-app
// overrides gathered by the Director.
type LaunchOptions struct {
	Target *types.Coordinate

	// EnsureWindow is an AppleScript fragment run inside the app's tell
	// block before positioning, e.g. "make new document".
	EnsureWindow string
	// Positioning replaces the default bounds/position fragment when set.
	Positioning string
}

// Keystroker is implemented by backends that can send a key combination to
// the frontmost application.
type Keystroker interface {
	Keystroke(ctx context.Context, character string, mods ...types.Modifier) error
}

// MenuClicker is implemented by backends that can click menu items.
type MenuClicker interface {
	ClickMenuItem(ctx context.Context, items ...string) error
}

// DirectionFunc is a named direction taking string arguments.
type DirectionFunc func(ctx context.Context, args ...string) (string, error)

// Extension is implemented by backends offering directions beyond the core
// set, looked up by name.
type Extension interface {
	Direction(name string) (DirectionFunc, bool)
}
