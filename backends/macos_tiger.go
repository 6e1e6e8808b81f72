package backends

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/types"
)

const (
	IDMacOSXTiger    = "macosx_tiger"
	LabelMacOSXTiger = "Mac OS X 10.4"
)

// cursorStep is the largest distance, in pixels, the legacy backend moves
// the cursor per step.
const cursorStep = 10

// MacOSXTiger drives Mac OS X 10.4 through AppleScript and Extra Suites. It
// inherits launch, screen size and speech from MacOSX and overrides every
// direction that would otherwise need the helper.
//
// Only left clicks are supported. There is no mousedown, mouseup or drag,
// and keystroke is not available.
type MacOSXTiger struct {
	*MacOSX
}

// NewMacOSXTiger returns the legacy backend bound to host.
func NewMacOSXTiger(host Host, quiet bool) *MacOSXTiger {
	return &MacOSXTiger{MacOSX: NewMacOSX(host, MacOSXOptions{Quiet: quiet})}
}

func (b *MacOSXTiger) Label() string {
	return LabelMacOSXTiger
}

// Cursor walks the pointer to the target in steps of at most ten pixels.
func (b *MacOSXTiger) Cursor(ctx context.Context, to types.Point) error {
	from, err := b.CursorLocation(ctx)
	if err != nil {
		return err
	}

	dx, dy := to.X-from.X, to.Y-from.Y
	steps := max(abs(dx), abs(dy)) / cursorStep
	if steps == 0 {
		steps = 1
	}

	var script strings.Builder
	script.WriteString("tell application \"Extra Suites\"\n")
	for i := 1; i <= steps; i++ {
		x := from.X + dx*i/steps
		y := from.Y + dy*i/steps
		fmt.Fprintf(&script, "  ES move mouse {%d, %d}\n", x, y)
	}
	script.WriteString("end tell")

	_, err = b.host.ExecuteScript(ctx, script.String())
	return err
}

func (b *MacOSXTiger) CursorLocation(ctx context.Context) (types.Point, error) {
	out, err := b.host.ExecuteScript(ctx, `tell application "Extra Suites" to ES mouse location`)
	if err != nil {
		return types.Point{}, err
	}
	return parsePoint(out)
}

func (b *MacOSXTiger) Click(ctx context.Context, btn types.Button) error {
	return b.leftClicks(ctx, btn, `tell application "Extra Suites" to ES click mouse`)
}

func (b *MacOSXTiger) DoubleClick(ctx context.Context, btn types.Button) error {
	return b.leftClicks(ctx, btn, `tell application "Extra Suites" to ES click mouse with double click`)
}

func (b *MacOSXTiger) TripleClick(ctx context.Context, btn types.Button) error {
	return b.leftClicks(ctx, btn, `
tell application "Extra Suites"
  ES click mouse
  ES click mouse
  ES click mouse
end tell`)
}

func (b *MacOSXTiger) MouseDown(ctx context.Context, btn types.Button) error {
	return types.NotSupported("mousedown", b.Label())
}

func (b *MacOSXTiger) MouseUp(ctx context.Context, btn types.Button) error {
	return types.NotSupported("mouseup", b.Label())
}

func (b *MacOSXTiger) Drag(ctx context.Context, to types.Point) error {
	return types.NotSupported("drag", b.Label())
}

func (b *MacOSXTiger) Type(ctx context.Context, text string, opts types.Options) error {
	return typeViaAppleScript(ctx, b.host, text, opts.TypeSpeed())
}

// Hit presses key, with optional modifiers. Key codes go through System
// Events; plain characters go through Extra Suites.
func (b *MacOSXTiger) Hit(ctx context.Context, key string, mods ...types.Modifier) error {
	key = types.ResolveKey(key)
	if key == `"` {
		if len(mods) > 0 {
			return types.NotSupported(`modifier keys for '"'`, b.Label())
		}
		return b.Type(ctx, key, types.Options{})
	}

	if types.IsKeyCode(key) {
		code, err := strconv.ParseInt(key, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid key code %q: %w", key, err)
		}

		script := fmt.Sprintf("tell application \"System Events\" to key code %d", code)
		if len(mods) > 0 {
			downs := make([]string, 0, len(mods))
			for _, m := range mods {
				downs = append(downs, string(m)+" down")
			}
			script += " using {" + strings.Join(downs, ", ") + "}"
		}
		_, err = b.host.ExecuteScript(ctx, script)
		return err
	}

	script := `tell application "Extra Suites" to ES type key "` + automation.EscapeDoubleQuotes(key) + `"`
	if len(mods) > 0 {
		names := make([]string, 0, len(mods))
		for _, m := range mods {
			names = append(names, string(m))
		}
		script += " with " + strings.Join(names, " and ")
	}
	_, err := b.host.ExecuteScript(ctx, script)
	return err
}

func (b *MacOSXTiger) Keystroke(ctx context.Context, character string, mods ...types.Modifier) error {
	return types.NotSupported("keystroke", b.Label())
}

func (b *MacOSXTiger) Direction(name string) (DirectionFunc, bool) {
	if name == "keystroke" {
		return keystrokeDirection(b), true
	}
	return b.MacOSX.Direction(name)
}

func (b *MacOSXTiger) leftClicks(ctx context.Context, btn types.Button, script string) error {
	if !btn.IsLeft() {
		return types.NotSupported("anything other than left clicking", b.Label())
	}
	_, err := b.host.ExecuteScript(ctx, script)
	return err
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
