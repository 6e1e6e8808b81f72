package backends

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"al.essio.dev/pkg/shellescape"
	"github.com/castanaut/castanaut/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost records shell commands and AppleScript sources.
type fakeHost struct {
	mu       sync.Mutex
	commands []string
	scripts  []string

	runOutput    string
	scriptOutput string
}

func (h *fakeHost) Run(ctx context.Context, command string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, command)
	return h.runOutput, nil
}

func (h *fakeHost) ExecuteScript(ctx context.Context, source string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scripts = append(h.scripts, source)
	return h.scriptOutput, nil
}

func (h *fakeHost) lastScript() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.scripts) == 0 {
		return ""
	}
	return h.scripts[len(h.scripts)-1]
}

func writeHelper(t *testing.T, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osxautomation")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
	return path
}

func newModern(t *testing.T) (*MacOSX, *fakeHost, string) {
	t.Helper()
	host := &fakeHost{}
	helper := writeHelper(t, 0755)
	return NewMacOSX(host, MacOSXOptions{HelperPath: helper}), host, helper
}

func helperCommand(helper, command string) string {
	return shellescape.Quote(helper) + " " + shellescape.Quote(command)
}

func TestMacOSX_HelperCommands(t *testing.T) {
	b, host, helper := newModern(t)
	ctx := context.Background()

	require.NoError(t, b.Cursor(ctx, types.Point{X: 10, Y: 20}))
	require.NoError(t, b.Click(ctx, types.Left))
	require.NoError(t, b.DoubleClick(ctx, types.Right))
	require.NoError(t, b.TripleClick(ctx, ""))
	require.NoError(t, b.MouseDown(ctx, types.Middle))
	require.NoError(t, b.MouseUp(ctx, types.Middle))
	require.NoError(t, b.Drag(ctx, types.Point{X: 5, Y: 6}))
	require.NoError(t, b.Hit(ctx, types.Return))
	require.NoError(t, b.Type(ctx, "hello world", types.Options{}))

	assert.Equal(t, []string{
		helperCommand(helper, "mousemove 10 20"),
		helperCommand(helper, "mouseclick 1"),
		helperCommand(helper, "mousedoubleclick 2"),
		helperCommand(helper, "mousetripleclick 1"),
		helperCommand(helper, "mousedown 3"),
		helperCommand(helper, "mouseup 3"),
		helperCommand(helper, "mousedrag 5 6"),
		helperCommand(helper, "hit 0x24"),
		helperCommand(helper, "type hello world"),
	}, host.commands)
}

func TestMacOSX_CursorLocation(t *testing.T) {
	b, host, _ := newModern(t)
	host.runOutput = "640 480\n"

	p, err := b.CursorLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Point{X: 640, Y: 480}, p)
}

func TestMacOSX_UnknownButton(t *testing.T) {
	b, host, _ := newModern(t)
	err := b.Click(context.Background(), types.Button("thumb"))
	assert.Error(t, err)
	assert.Empty(t, host.commands)
}

func TestMacOSX_HelperMadeExecutable(t *testing.T) {
	host := &fakeHost{}
	helper := writeHelper(t, 0644)
	b := NewMacOSX(host, MacOSXOptions{HelperPath: helper})

	require.NoError(t, b.Cursor(context.Background(), types.Point{X: 1, Y: 1}))
	info, err := os.Stat(helper)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0111)
}

func TestMacOSX_MissingHelper(t *testing.T) {
	host := &fakeHost{}
	b := NewMacOSX(host, MacOSXOptions{HelperPath: filepath.Join(t.TempDir(), "nope")})

	err := b.Click(context.Background(), types.Left)
	assert.ErrorIs(t, err, types.ErrHelperPermission)
	assert.Empty(t, host.commands)

	// directions that do not need the helper still work
	require.NoError(t, b.Say(context.Background(), "hi"))
}

func TestMacOSX_HitWithModifiersNotSupported(t *testing.T) {
	b, host, _ := newModern(t)

	err := b.Hit(context.Background(), "a", types.ModCommand)
	require.ErrorIs(t, err, types.ErrNotSupported)
	assert.Equal(t, "Mac OS X 10.5 or greater doesn't support modifier keys for 'hit'", err.Error())
	assert.Empty(t, host.commands)
}

func TestMacOSX_TypeWithSpeedUsesAppleScript(t *testing.T) {
	b, host, _ := newModern(t)

	require.NoError(t, b.Type(context.Background(), `a"b`, types.Speed(10)))
	assert.Empty(t, host.commands)

	script := host.lastScript()
	assert.Contains(t, script, `keystroke "a"`)
	assert.Contains(t, script, `keystroke "\""`)
	assert.Contains(t, script, "delay 0.100")
	assert.Equal(t, 2, strings.Count(script, "delay "))
}

func TestMacOSX_TypeSpeedZeroHasNoDelays(t *testing.T) {
	b, host, _ := newModern(t)

	require.NoError(t, b.Type(context.Background(), "abc", types.Options{Speed: types.Int(0)}))
	assert.NotContains(t, host.lastScript(), "delay")
}

func TestMacOSX_Keystroke(t *testing.T) {
	b, host, _ := newModern(t)

	require.NoError(t, b.Keystroke(context.Background(), "t"))
	assert.Contains(t, host.lastScript(), `keystroke "t" using {command down}`)

	require.NoError(t, b.Keystroke(context.Background(), "z", types.ModCommand, types.ModShift))
	assert.Contains(t, host.lastScript(), `keystroke "z" using {command down, shift down}`)
}

func TestMacOSX_ClickMenuItem(t *testing.T) {
	b, host, _ := newModern(t)

	require.NoError(t, b.ClickMenuItem(context.Background(), "TextEdit", "File", "Save As..."))
	assert.Contains(t, host.lastScript(), `menu_click({"TextEdit", "File", "Save As…"})`)

	assert.Error(t, b.ClickMenuItem(context.Background(), "TextEdit", "File"))
}

func TestMacOSX_Launch(t *testing.T) {
	b, host, _ := newModern(t)

	target := types.Coordinate{Left: 10, Top: 20, Width: 300, Height: 200}
	require.NoError(t, b.Launch(context.Background(), "Safari", LaunchOptions{
		Target:       &target,
		EnsureWindow: "if (count(windows)) < 1 then make new document",
	}))

	script := host.lastScript()
	assert.Contains(t, script, `tell application "Safari"`)
	assert.Contains(t, script, "activate")
	assert.Contains(t, script, "make new document")
	assert.Contains(t, script, "set bounds of front window to {10, 20, 310, 220}")

	point := types.Coordinate{Left: 5, Top: 6}
	require.NoError(t, b.Launch(context.Background(), "Terminal", LaunchOptions{Target: &point}))
	assert.Contains(t, host.lastScript(), "set position of front window to {5, 6}")

	require.NoError(t, b.Launch(context.Background(), "Terminal", LaunchOptions{
		Target:      &point,
		Positioning: "set custom to true",
	}))
	assert.Contains(t, host.lastScript(), "set custom to true")
	assert.NotContains(t, host.lastScript(), "set position")
}

func TestMacOSX_ScreenSize(t *testing.T) {
	b, host, _ := newModern(t)
	host.scriptOutput = "0, 0, 1440, 900"

	c, err := b.ScreenSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Coordinate{Left: 0, Top: 0, Width: 1440, Height: 900}, c)

	host.scriptOutput = "garbage"
	_, err = b.ScreenSize(context.Background())
	assert.Error(t, err)
}

func TestMacOSX_Say(t *testing.T) {
	b, host, _ := newModern(t)

	require.NoError(t, b.Say(context.Background(), `say "hi"`))
	assert.Equal(t, []string{`say 'say "hi"'`}, host.commands)

	host.commands = nil
	require.NoError(t, b.Say(context.Background(), "it costs $5 and `date` $(id)"))
	assert.Equal(t, []string{"say 'it costs $5 and `date` $(id)'"}, host.commands)

	host.commands = nil
	require.NoError(t, b.Say(context.Background(), "it's"))
	assert.Equal(t, []string{`say 'it'"'"'s'`}, host.commands)

	quiet := NewMacOSX(host, MacOSXOptions{Quiet: true})
	require.NoError(t, quiet.Say(context.Background(), "nothing"))
	assert.Len(t, host.commands, 1)
}

func TestMacOSX_Directions(t *testing.T) {
	b, host, _ := newModern(t)

	fn, ok := b.Direction("keystroke")
	require.True(t, ok)
	_, err := fn(context.Background(), "n", "cmd", "shift")
	require.NoError(t, err)
	assert.Contains(t, host.lastScript(), `keystroke "n" using {command down, shift down}`)

	fn, ok = b.Direction("execute_applescript")
	require.True(t, ok)
	_, err = fn(context.Background(), "beep")
	require.NoError(t, err)
	assert.Equal(t, "beep", host.lastScript())

	_, ok = b.Direction("teleport")
	assert.False(t, ok)
}

func TestTiger_LeftClicksOnly(t *testing.T) {
	host := &fakeHost{}
	b := NewMacOSXTiger(host, false)
	ctx := context.Background()

	require.NoError(t, b.Click(ctx, types.Left))
	assert.Contains(t, host.lastScript(), "ES click mouse")

	err := b.Click(ctx, types.Right)
	require.ErrorIs(t, err, types.ErrNotSupported)
	assert.Equal(t, "Mac OS X 10.4 doesn't support anything other than left clicking", err.Error())

	require.NoError(t, b.TripleClick(ctx, types.Left))
	assert.Equal(t, 3, strings.Count(host.lastScript(), "ES click mouse"))
}

func TestTiger_DeclinedDirections(t *testing.T) {
	b := NewMacOSXTiger(&fakeHost{}, false)
	ctx := context.Background()

	for name, err := range map[string]error{
		"mousedown": b.MouseDown(ctx, types.Left),
		"mouseup":   b.MouseUp(ctx, types.Left),
		"drag":      b.Drag(ctx, types.Point{}),
		"keystroke": b.Keystroke(ctx, "a"),
	} {
		var ns *types.NotSupportedError
		require.ErrorAs(t, err, &ns, name)
		assert.Equal(t, name, ns.Direction)
		assert.Equal(t, LabelMacOSXTiger, ns.Backend)
	}

	fn, ok := b.Direction("keystroke")
	require.True(t, ok)
	_, err := fn(ctx, "a")
	assert.ErrorIs(t, err, types.ErrNotSupported)
}

func TestTiger_CursorSteps(t *testing.T) {
	host := &fakeHost{scriptOutput: "0, 0"}
	b := NewMacOSXTiger(host, false)

	require.NoError(t, b.Cursor(context.Background(), types.Point{X: 30, Y: 15}))
	script := host.lastScript()
	assert.Contains(t, script, "ES move mouse {10, 5}")
	assert.Contains(t, script, "ES move mouse {20, 10}")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(strings.TrimSuffix(script, "end tell")), "ES move mouse {30, 15}"))
}

func TestTiger_Hit(t *testing.T) {
	host := &fakeHost{}
	b := NewMacOSXTiger(host, false)
	ctx := context.Background()

	require.NoError(t, b.Hit(ctx, types.Return, types.ModCommand))
	assert.Equal(t, `tell application "System Events" to key code 36 using {command down}`, host.lastScript())

	require.NoError(t, b.Hit(ctx, "s", types.ModCommand, types.ModShift))
	assert.Equal(t, `tell application "Extra Suites" to ES type key "s" with command and shift`, host.lastScript())

	require.NoError(t, b.Hit(ctx, `"`))
	assert.Contains(t, host.lastScript(), `keystroke "\""`)

	scripts := len(host.scripts)
	err := b.Hit(ctx, `"`, types.ModCommand)
	require.ErrorIs(t, err, types.ErrNotSupported)
	assert.Equal(t, `Mac OS X 10.4 doesn't support modifier keys for '"'`, err.Error())
	assert.Len(t, host.scripts, scripts, "nothing is sent")
}

func TestTiger_TypeAlwaysAppleScript(t *testing.T) {
	host := &fakeHost{}
	b := NewMacOSXTiger(host, false)

	require.NoError(t, b.Type(context.Background(), "hi", types.Options{}))
	assert.Empty(t, host.commands)
	assert.Contains(t, host.lastScript(), "delay 0.020")
}
