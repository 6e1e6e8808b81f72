package backends

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"al.essio.dev/pkg/shellescape"
	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
)

const (
	IDMacOSX    = "macosx"
	LabelMacOSX = "Mac OS X 10.5 or greater"
)

// MacOSX drives Mac OS X 10.5 and later. Mouse and keyboard input goes
// through the osxautomation helper; windows, menus and speech go through
// AppleScript and the shell.
//
// Known limitations: hit does not support modifier keys (use keystroke),
// and the helper's type ignores speed, so a requested speed switches to
// the AppleScript typing technique.
type MacOSX struct {
	host   Host
	helper string
	quiet  bool

	permsOnce sync.Once
	permsErr  error
}

// MacOSXOptions configures the modern backend.
type MacOSXOptions struct {
	HelperPath string
	Quiet      bool
}

// NewMacOSX returns the modern backend bound to host.
func NewMacOSX(host Host, opts MacOSXOptions) *MacOSX {
	return &MacOSX{
		host:   host,
		helper: opts.HelperPath,
		quiet:  opts.Quiet,
	}
}

func (b *MacOSX) Label() string {
	return LabelMacOSX
}

func (b *MacOSX) Cursor(ctx context.Context, to types.Point) error {
	_, err := b.automatically(ctx, fmt.Sprintf("mousemove %d %d", to.X, to.Y))
	return err
}

func (b *MacOSX) CursorLocation(ctx context.Context) (types.Point, error) {
	out, err := b.automatically(ctx, "mouselocation")
	if err != nil {
		return types.Point{}, err
	}
	return parsePoint(out)
}

func (b *MacOSX) Click(ctx context.Context, btn types.Button) error {
	return b.mouseButton(ctx, "mouseclick", btn)
}

func (b *MacOSX) DoubleClick(ctx context.Context, btn types.Button) error {
	return b.mouseButton(ctx, "mousedoubleclick", btn)
}

func (b *MacOSX) TripleClick(ctx context.Context, btn types.Button) error {
	return b.mouseButton(ctx, "mousetripleclick", btn)
}

func (b *MacOSX) MouseDown(ctx context.Context, btn types.Button) error {
	return b.mouseButton(ctx, "mousedown", btn)
}

func (b *MacOSX) MouseUp(ctx context.Context, btn types.Button) error {
	return b.mouseButton(ctx, "mouseup", btn)
}

func (b *MacOSX) Drag(ctx context.Context, to types.Point) error {
	_, err := b.automatically(ctx, fmt.Sprintf("mousedrag %d %d", to.X, to.Y))
	return err
}

func (b *MacOSX) Type(ctx context.Context, text string, opts types.Options) error {
	if opts.Speed != nil || (opts.AppleScript != nil && *opts.AppleScript) {
		return typeViaAppleScript(ctx, b.host, text, opts.TypeSpeed())
	}
	_, err := b.automatically(ctx, "type "+text)
	return err
}

func (b *MacOSX) Hit(ctx context.Context, key string, mods ...types.Modifier) error {
	if len(mods) > 0 {
		return types.NotSupported("modifier keys for 'hit'", b.Label())
	}

	key = types.ResolveKey(key)
	if types.IsKeyCode(key) {
		_, err := b.automatically(ctx, "hit "+key)
		return err
	}
	_, err := b.automatically(ctx, "type "+key)
	return err
}

// Keystroke sends character with the given modifiers (command when none) to
// the frontmost application.
func (b *MacOSX) Keystroke(ctx context.Context, character string, mods ...types.Modifier) error {
	if len(mods) == 0 {
		mods = []types.Modifier{types.ModCommand}
	}

	downs := make([]string, 0, len(mods))
	for _, m := range mods {
		downs = append(downs, string(m)+" down")
	}

	_, err := b.host.ExecuteScript(ctx, fmt.Sprintf(`
tell application "System Events"
  set frontApp to name of first item of (processes whose frontmost is true)
  tell application frontApp
    keystroke "%s" using {%s}
  end tell
end tell`, automation.EscapeDoubleQuotes(character), strings.Join(downs, ", ")))
	return err
}

// ClickMenuItem clicks a menu item: application, top menu, then one or more
// item names. "..." is replaced with an ellipsis.
func (b *MacOSX) ClickMenuItem(ctx context.Context, items ...string) error {
	if len(items) < 3 {
		return fmt.Errorf("menu path needs an application, a menu and an item, got %d element(s)", len(items))
	}

	quoted := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ReplaceAll(item, "...", "…")
		quoted = append(quoted, `"`+automation.EscapeDoubleQuotes(item)+`"`)
	}

	_, err := b.host.ExecuteScript(ctx, menuClickScript+"\nmenu_click({"+strings.Join(quoted, ", ")+"})\n")
	return err
}

const menuClickScript = `
on menu_click(mList)
  local appName, topMenu, r
  if mList's length < 3 then error "Menu list is not long enough"
  set {appName, topMenu} to (items 1 through 2 of mList)
  set r to (items 3 through (mList's length) of mList)
  tell application "System Events" to my menu_click_recurse(r, ((process appName)'s (menu bar 1)'s (menu bar item topMenu)'s (menu topMenu)))
end menu_click

on menu_click_recurse(mList, parentObject)
  local f, r
  set f to item 1 of mList
  if mList's length > 1 then set r to (items 2 through (mList's length) of mList)
  tell application "System Events"
    if mList's length is 1 then
      click parentObject's menu item f
    else
      my menu_click_recurse(r, (parentObject's (menu item f)'s (menu f)))
    end if
  end tell
end menu_click_recurse`

func (b *MacOSX) Launch(ctx context.Context, app string, opts LaunchOptions) error {
	_, err := b.host.ExecuteScript(ctx, launchScript(app, opts))
	return err
}

func launchScript(app string, opts LaunchOptions) string {
	positioning := opts.Positioning
	if positioning == "" && opts.Target != nil {
		t := opts.Target
		if t.HasSize() {
			positioning = fmt.Sprintf("set bounds of front window to {%d, %d, %d, %d}",
				t.Left, t.Top, t.Left+t.Width, t.Top+t.Height)
		} else {
			positioning = fmt.Sprintf("set position of front window to {%d, %d}", t.Left, t.Top)
		}
	}

	return fmt.Sprintf(`
tell application "%s"
  activate
  %s
  %s
end tell`, automation.EscapeDoubleQuotes(app), opts.EnsureWindow, positioning)
}

// ScreenSize returns the desktop bounds reported by Finder. Multi-monitor
// setups report the union of all screens.
func (b *MacOSX) ScreenSize(ctx context.Context) (types.Coordinate, error) {
	out, err := b.host.ExecuteScript(ctx, `
tell application "Finder"
  get bounds of window of desktop
end tell`)
	if err != nil {
		return types.Coordinate{}, err
	}
	return parseBounds(out)
}

func (b *MacOSX) Say(ctx context.Context, text string) error {
	return say(ctx, b.host, text, b.quiet)
}

// Direction exposes the non-core directions by name.
func (b *MacOSX) Direction(name string) (DirectionFunc, bool) {
	switch name {
	case "execute_applescript":
		return func(ctx context.Context, args ...string) (string, error) {
			return b.host.ExecuteScript(ctx, strings.Join(args, "\n"))
		}, true
	case "keystroke":
		return keystrokeDirection(b), true
	case "click_menu_item":
		return func(ctx context.Context, args ...string) (string, error) {
			return "", b.ClickMenuItem(ctx, args...)
		}, true
	}
	return nil, false
}

func keystrokeDirection(k Keystroker) DirectionFunc {
	return func(ctx context.Context, args ...string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("keystroke needs a character")
		}
		mods, err := types.ParseModifiers(args[1:])
		if err != nil {
			return "", err
		}
		return "", k.Keystroke(ctx, args[0], mods...)
	}
}

func (b *MacOSX) mouseButton(ctx context.Context, action string, btn types.Button) error {
	code, err := btn.Code()
	if err != nil {
		return err
	}
	_, err = b.automatically(ctx, fmt.Sprintf("%s %d", action, code))
	return err
}

// automatically runs one helper command.
func (b *MacOSX) automatically(ctx context.Context, command string) (string, error) {
	if err := b.permsTest(); err != nil {
		return "", err
	}
	return b.host.Run(ctx, shellescape.Quote(b.helper)+" "+shellescape.Quote(command))
}

// permsTest makes sure the helper is executable, once per backend.
func (b *MacOSX) permsTest() error {
	b.permsOnce.Do(func() {
		if isExecutable(b.helper) {
			return
		}

		utils.Info("castanaut has recently been installed or updated and needs the right to control mouse and keyboard input: making %s executable", b.helper)
		if err := os.Chmod(b.helper, 0755); err != nil {
			utils.Verbose("chmod %s failed: %v", b.helper, err)
		}

		if !isExecutable(b.helper) {
			b.permsErr = fmt.Errorf("%w: %s", types.ErrHelperPermission, b.helper)
			return
		}
		utils.Info("Permission granted. Thanks.")
	})
	return b.permsErr
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode().Perm()&0111 != 0
}

// typeViaAppleScript types text one keystroke at a time. speed is in
// characters per second; 0 types without delays.
func typeViaAppleScript(ctx context.Context, host Host, text string, speed int) error {
	if text == "" {
		return nil
	}

	var body strings.Builder
	for i, r := range text {
		if i > 0 && speed > 0 {
			body.WriteString("    delay " + strconv.FormatFloat(1.0/float64(speed), 'f', 3, 64) + "\n")
		}
		body.WriteString(`    keystroke "` + automation.EscapeDoubleQuotes(string(r)) + "\"\n")
	}

	_, err := host.ExecuteScript(ctx, fmt.Sprintf(`
tell application "System Events"
  set frontApp to name of first item of (processes whose frontmost is true)
  tell application frontApp
%s  end tell
end tell`, body.String()))
	return err
}

func say(ctx context.Context, host Host, text string, quiet bool) error {
	if quiet {
		utils.Verbose("quiet mode, not saying: %s", text)
		return nil
	}
	_, err := host.Run(ctx, "say "+shellescape.Quote(text))
	return err
}

// parsePoint reads two integers separated by anything that is not a digit
// or minus sign, e.g. "100 200" or "100, 200".
func parsePoint(out string) (types.Point, error) {
	fields := strings.FieldsFunc(out, func(r rune) bool {
		return (r < '0' || r > '9') && r != '-'
	})
	if len(fields) < 2 {
		return types.Point{}, fmt.Errorf("unexpected cursor location output: %q", out)
	}

	x, errX := strconv.Atoi(fields[0])
	y, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return types.Point{}, fmt.Errorf("unexpected cursor location output: %q", out)
	}
	return types.Point{X: x, Y: y}, nil
}

// parseBounds reads "left, top, right, bottom".
func parseBounds(out string) (types.Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(out), ",")
	if len(parts) != 4 {
		return types.Coordinate{}, fmt.Errorf("unexpected bounds output: %q", out)
	}

	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return types.Coordinate{}, fmt.Errorf("unexpected bounds output: %q", out)
		}
		vals[i] = v
	}

	return types.Coordinate{
		Left:   vals[0],
		Top:    vals[1],
		Width:  vals[2] - vals[0],
		Height: vals[3] - vals[1],
	}, nil
}
