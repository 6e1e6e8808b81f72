package commands

import (
	"context"
	"fmt"

	"github.com/castanaut/castanaut/types"
)

// CursorRequest represents the parameters for a cursor or drag command
type CursorRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MoveByRequest represents the parameters for a relative move
type MoveByRequest struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// ClickRequest represents the parameters for a click command. Count selects
// single, double or triple clicks and defaults to 1.
type ClickRequest struct {
	Button string `json:"button,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// ButtonRequest represents the parameters for mousedown and mouseup
type ButtonRequest struct {
	Button string `json:"button,omitempty"`
}

// TypeRequest represents the parameters for a type command
type TypeRequest struct {
	Text        string `json:"text"`
	Speed       *int   `json:"speed,omitempty"`
	AppleScript bool   `json:"applescript,omitempty"`
}

// HitRequest represents the parameters for a hit command
type HitRequest struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// LaunchRequest represents the parameters for a launch command. Left and
// Top position the front window; Width and Height resize it.
type LaunchRequest struct {
	App    string `json:"app"`
	Left   *int   `json:"left,omitempty"`
	Top    *int   `json:"top,omitempty"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

// SayRequest represents the parameters for a say command
type SayRequest struct {
	Text string `json:"text"`
}

// DirectionRequest invokes any direction by name: plugin directions and
// backend extensions.
type DirectionRequest struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// CursorCommand moves the mouse to an absolute position
func CursorCommand(ctx context.Context, req CursorRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := d.Cursor(ctx, types.To(req.X, req.Y)); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to move cursor: %w", err))
	}

	return NewSuccessResponse(types.Point{X: req.X, Y: req.Y})
}

// MoveByCommand moves the mouse relative to its last known position
func MoveByCommand(ctx context.Context, req MoveByRequest) *CommandResponse {
	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	to, err := d.By(ctx, req.DX, req.DY)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to read cursor location: %w", err))
	}
	if err := d.Cursor(ctx, to); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to move cursor: %w", err))
	}

	target, _ := to.Target()
	return NewSuccessResponse(target.Point())
}

// CursorLocationCommand reports where the mouse is
func CursorLocationCommand(ctx context.Context) *CommandResponse {
	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	p, err := d.CursorLocation(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to read cursor location: %w", err))
	}
	return NewSuccessResponse(p)
}

// ClickCommand clicks, double clicks or triple clicks a mouse button
func ClickCommand(ctx context.Context, req ClickRequest) *CommandResponse {
	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	btn := types.Button(req.Button)
	if _, err := btn.Code(); err != nil {
		return NewErrorResponse(err)
	}

	switch req.Count {
	case 0, 1:
		err = d.Click(ctx, btn)
	case 2:
		err = d.DoubleClick(ctx, btn)
	case 3:
		err = d.TripleClick(ctx, btn)
	default:
		return NewErrorResponse(fmt.Errorf("count must be 1, 2 or 3, got %d", req.Count))
	}
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to click: %w", err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Clicked %s button", buttonName(btn)),
	})
}

// MouseDownCommand presses a mouse button without releasing it
func MouseDownCommand(ctx context.Context, req ButtonRequest) *CommandResponse {
	return buttonCommand(ctx, req, "press", func(ctx context.Context, btn types.Button) error {
		d, err := GetDirector()
		if err != nil {
			return err
		}
		return d.MouseDown(ctx, btn)
	})
}

// MouseUpCommand releases a mouse button
func MouseUpCommand(ctx context.Context, req ButtonRequest) *CommandResponse {
	return buttonCommand(ctx, req, "release", func(ctx context.Context, btn types.Button) error {
		d, err := GetDirector()
		if err != nil {
			return err
		}
		return d.MouseUp(ctx, btn)
	})
}

func buttonCommand(ctx context.Context, req ButtonRequest, verb string, fn func(context.Context, types.Button) error) *CommandResponse {
	btn := types.Button(req.Button)
	if _, err := btn.Code(); err != nil {
		return NewErrorResponse(err)
	}
	if err := fn(ctx, btn); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to %s %s button: %w", verb, buttonName(btn), err))
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("%s %s button", verb, buttonName(btn)),
	})
}

// DragCommand drags the mouse to an absolute position
func DragCommand(ctx context.Context, req CursorRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := d.Drag(ctx, types.To(req.X, req.Y)); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to drag: %w", err))
	}
	return NewSuccessResponse(types.Point{X: req.X, Y: req.Y})
}

// TypeCommand types text into the frontmost application
func TypeCommand(ctx context.Context, req TypeRequest) *CommandResponse {
	if req.Text == "" {
		return NewErrorResponse(fmt.Errorf("text is required"))
	}

	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	opts := types.Options{Speed: req.Speed}
	if req.AppleScript {
		opts.AppleScript = types.Bool(true)
	}
	if err := d.Type(ctx, req.Text, opts); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to type text: %w", err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Typed %d characters", len([]rune(req.Text))),
	})
}

// HitCommand presses a key, optionally with modifiers
func HitCommand(ctx context.Context, req HitRequest) *CommandResponse {
	if req.Key == "" {
		return NewErrorResponse(fmt.Errorf("key is required"))
	}

	mods, err := types.ParseModifiers(req.Modifiers)
	if err != nil {
		return NewErrorResponse(err)
	}

	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := d.Hit(ctx, req.Key, mods...); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to hit %s: %w", req.Key, err))
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Hit %s", req.Key),
	})
}

// LaunchCommand launches or activates an application
func LaunchCommand(ctx context.Context, req LaunchRequest) *CommandResponse {
	if req.App == "" {
		return NewErrorResponse(fmt.Errorf("app is required"))
	}
	if (req.Left == nil) != (req.Top == nil) {
		return NewErrorResponse(fmt.Errorf("left and top must be given together"))
	}

	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	at := types.Options{Left: req.Left, Top: req.Top, Width: req.Width, Height: req.Height}
	if err := d.Launch(ctx, req.App, at); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to launch %s: %w", req.App, err))
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Launched %s", req.App),
	})
}

// ScreenSizeCommand reports the main screen's size
func ScreenSizeCommand(ctx context.Context) *CommandResponse {
	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	size, err := d.ScreenSize(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to read screen size: %w", err))
	}
	return NewSuccessResponse(size)
}

// SayCommand speaks text aloud
func SayCommand(ctx context.Context, req SayRequest) *CommandResponse {
	if req.Text == "" {
		return NewErrorResponse(fmt.Errorf("text is required"))
	}

	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := d.Say(ctx, req.Text); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to say text: %w", err))
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": "Said it",
	})
}

// DirectionCommand runs a named direction through the Director's fallback
func DirectionCommand(ctx context.Context, req DirectionRequest) *CommandResponse {
	if req.Name == "" {
		return NewErrorResponse(fmt.Errorf("name is required"))
	}

	d, err := GetDirector()
	if err != nil {
		return NewErrorResponse(err)
	}

	out, err := d.Invoke(ctx, req.Name, req.Args...)
	if err != nil {
		return NewErrorResponse(err)
	}
	return NewSuccessResponse(map[string]interface{}{
		"output": out,
	})
}

func buttonName(btn types.Button) string {
	if btn == "" {
		return string(types.Left)
	}
	return string(btn)
}
