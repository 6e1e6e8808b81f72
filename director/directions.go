package director

import (
	"context"
	"fmt"
	"time"

	"github.com/castanaut/castanaut/backends"
	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
)

// To returns an option bag targeting (left, top), or a region when width
// and height are given.
func To(left, top int, size ...int) types.Options {
	return types.To(left, top, size...)
}

// At is an alias of To.
func At(left, top int, size ...int) types.Options {
	return types.At(left, top, size...)
}

// Offset returns an option bag that shifts the target by dx, dy.
func Offset(dx, dy int) types.Options {
	return types.Offset(dx, dy)
}

// Combine folds option bags left to right; later fields win.
func Combine(bags ...types.Options) types.Options {
	return types.Combine(bags...)
}

// By returns an option bag targeting the cursor position moved by dx, dy.
// The cached cursor is used when known; otherwise the backend is asked.
func (d *Director) By(ctx context.Context, dx, dy int) (types.Options, error) {
	from, ok := d.cachedCursor()
	if !ok {
		var err error
		from, err = d.CursorLocation(ctx)
		if err != nil {
			return types.Options{}, err
		}
	}
	return To(from.X+dx, from.Y+dy), nil
}

// Launch activates app and, when the options carry a target, positions its
// front window there. Plugin app hooks may change how the window is opened
// and positioned.
func (d *Director) Launch(ctx context.Context, app string, opts ...types.Options) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}

	var lo backends.LaunchOptions
	if target, ok := Combine(opts...).Target(); ok {
		lo.Target = &target
	}

	d.mu.Lock()
	hooks, ok := d.apps[app]
	d.mu.Unlock()
	if ok {
		lo.EnsureWindow = hooks.EnsureWindow
		lo.Positioning = hooks.Positioning
	}

	utils.Verbose("launch %s", app)
	return b.Launch(ctx, app, lo)
}

func (d *Director) ScreenSize(ctx context.Context) (types.Coordinate, error) {
	b, err := d.use(ctx)
	if err != nil {
		return types.Coordinate{}, err
	}
	return b.ScreenSize(ctx)
}

// CursorLocation asks the backend where the cursor is and refreshes the
// cache.
func (d *Director) CursorLocation(ctx context.Context) (types.Point, error) {
	b, err := d.use(ctx)
	if err != nil {
		return types.Point{}, err
	}

	p, err := b.CursorLocation(ctx)
	if err != nil {
		return types.Point{}, err
	}
	d.setCursor(p)
	return p, nil
}

// Cursor moves the mouse to the target described by opts, offset applied.
func (d *Director) Cursor(ctx context.Context, opts ...types.Options) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}

	target, err := pointFrom("cursor", opts)
	if err != nil {
		return err
	}

	if err := b.Cursor(ctx, target); err != nil {
		return err
	}
	d.setCursor(target)
	return nil
}

// Move is an alias of Cursor.
func (d *Director) Move(ctx context.Context, opts ...types.Options) error {
	return d.Cursor(ctx, opts...)
}

// MoveBy moves the mouse dx, dy from its current position.
func (d *Director) MoveBy(ctx context.Context, dx, dy int) error {
	to, err := d.By(ctx, dx, dy)
	if err != nil {
		return err
	}
	return d.Cursor(ctx, to)
}

func (d *Director) Click(ctx context.Context, btn types.Button) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.Click(ctx, btn)
}

func (d *Director) DoubleClick(ctx context.Context, btn types.Button) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.DoubleClick(ctx, btn)
}

func (d *Director) TripleClick(ctx context.Context, btn types.Button) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.TripleClick(ctx, btn)
}

func (d *Director) MouseDown(ctx context.Context, btn types.Button) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.MouseDown(ctx, btn)
}

func (d *Director) MouseUp(ctx context.Context, btn types.Button) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.MouseUp(ctx, btn)
}

// Drag presses the button at the current position, moves to the target and
// releases.
func (d *Director) Drag(ctx context.Context, opts ...types.Options) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}

	target, err := pointFrom("drag", opts)
	if err != nil {
		return err
	}

	if err := b.Drag(ctx, target); err != nil {
		return err
	}
	d.setCursor(target)
	return nil
}

// Type sends text to the focused control. The speed option is in
// characters per second, 0 meaning as fast as possible.
func (d *Director) Type(ctx context.Context, text string, opts ...types.Options) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.Type(ctx, text, Combine(opts...))
}

// Hit presses a single key, a character or one of the key code constants,
// with optional modifiers.
func (d *Director) Hit(ctx context.Context, key string, mods ...types.Modifier) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.Hit(ctx, key, mods...)
}

// Keystroke sends a key combination to the frontmost application.
func (d *Director) Keystroke(ctx context.Context, character string, mods ...types.Modifier) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}

	k, ok := b.(backends.Keystroker)
	if !ok {
		return types.NotSupported("keystroke", b.Label())
	}
	return k.Keystroke(ctx, character, mods...)
}

// ClickMenuItem clicks application > menu > item [> item...].
func (d *Director) ClickMenuItem(ctx context.Context, items ...string) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}

	m, ok := b.(backends.MenuClicker)
	if !ok {
		return types.NotSupported("click_menu_item", b.Label())
	}
	return m.ClickMenuItem(ctx, items...)
}

// Say speaks text with the system voice.
func (d *Director) Say(ctx context.Context, text string) error {
	b, err := d.use(ctx)
	if err != nil {
		return err
	}
	return b.Say(ctx, text)
}

// Pause waits for dur or until ctx is done.
func (d *Director) Pause(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func pointFrom(direction string, opts []types.Options) (types.Point, error) {
	target, ok := Combine(opts...).Target()
	if !ok {
		return types.Point{}, fmt.Errorf("%s needs a target with left and top", direction)
	}
	return target.Point(), nil
}
