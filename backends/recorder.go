package backends

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
)

const (
	IDRecorder    = "dryrun"
	LabelRecorder = "Dry run"
)

// Call is one direction received by a Recorder.
type Call struct {
	Direction string   `json:"direction"`
	Args      []string `json:"args,omitempty"`
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Direction
	}
	return c.Direction + " " + strings.Join(c.Args, " ")
}

// Recorder is a backend that performs nothing. It records every call and
// tracks a virtual cursor, and is used for dry runs and tests.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	cursor types.Point
	screen types.Coordinate

	// Decline makes the named directions return NotSupported.
	Decline map[string]bool
	// Fail makes the named directions return the given error.
	Fail map[string]error
	// Extra directions served through Direction.
	Extra map[string]DirectionFunc
}

// NewRecorder returns a recorder with a 1440x900 screen and the cursor at
// the origin.
func NewRecorder() *Recorder {
	return &Recorder{
		screen:  types.Coordinate{Width: 1440, Height: 900},
		Decline: make(map[string]bool),
		Fail:    make(map[string]error),
		Extra:   make(map[string]DirectionFunc),
	}
}

func (r *Recorder) Label() string {
	return LabelRecorder
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Directions returns just the direction names of the recorded calls.
func (r *Recorder) Directions() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Direction
	}
	return out
}

// SetCursor moves the virtual cursor without recording a call.
func (r *Recorder) SetCursor(p types.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = p
}

// SetScreen sets the screen size reported by ScreenSize.
func (r *Recorder) SetScreen(c types.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = c
}

func (r *Recorder) record(ctx context.Context, direction string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	declined := r.Decline[direction]
	failure := r.Fail[direction]
	if !declined && failure == nil {
		r.calls = append(r.calls, Call{Direction: direction, Args: args})
	}
	r.mu.Unlock()

	if declined {
		return types.NotSupported(direction, r.Label())
	}
	if failure != nil {
		return failure
	}
	utils.Verbose("[dry run] %s", Call{Direction: direction, Args: args})
	return nil
}

func (r *Recorder) Cursor(ctx context.Context, to types.Point) error {
	if err := r.record(ctx, "cursor", fmt.Sprint(to.X), fmt.Sprint(to.Y)); err != nil {
		return err
	}
	r.SetCursor(to)
	return nil
}

func (r *Recorder) CursorLocation(ctx context.Context) (types.Point, error) {
	if err := r.record(ctx, "cursor_location"); err != nil {
		return types.Point{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor, nil
}

func (r *Recorder) Click(ctx context.Context, btn types.Button) error {
	return r.record(ctx, "click", buttonArg(btn))
}

func (r *Recorder) DoubleClick(ctx context.Context, btn types.Button) error {
	return r.record(ctx, "doubleclick", buttonArg(btn))
}

func (r *Recorder) TripleClick(ctx context.Context, btn types.Button) error {
	return r.record(ctx, "tripleclick", buttonArg(btn))
}

func (r *Recorder) MouseDown(ctx context.Context, btn types.Button) error {
	return r.record(ctx, "mousedown", buttonArg(btn))
}

func (r *Recorder) MouseUp(ctx context.Context, btn types.Button) error {
	return r.record(ctx, "mouseup", buttonArg(btn))
}

func (r *Recorder) Drag(ctx context.Context, to types.Point) error {
	if err := r.record(ctx, "drag", fmt.Sprint(to.X), fmt.Sprint(to.Y)); err != nil {
		return err
	}
	r.SetCursor(to)
	return nil
}

func (r *Recorder) Type(ctx context.Context, text string, opts types.Options) error {
	return r.record(ctx, "type", text, fmt.Sprint(opts.TypeSpeed()))
}

func (r *Recorder) Hit(ctx context.Context, key string, mods ...types.Modifier) error {
	args := []string{types.ResolveKey(key)}
	for _, m := range mods {
		args = append(args, string(m))
	}
	return r.record(ctx, "hit", args...)
}

func (r *Recorder) Keystroke(ctx context.Context, character string, mods ...types.Modifier) error {
	args := []string{character}
	for _, m := range mods {
		args = append(args, string(m))
	}
	return r.record(ctx, "keystroke", args...)
}

func (r *Recorder) ClickMenuItem(ctx context.Context, items ...string) error {
	return r.record(ctx, "click_menu_item", items...)
}

func (r *Recorder) Launch(ctx context.Context, app string, opts LaunchOptions) error {
	args := []string{app}
	if opts.Target != nil {
		t := opts.Target
		args = append(args, fmt.Sprintf("%d,%d,%d,%d", t.Left, t.Top, t.Width, t.Height))
	}
	if opts.EnsureWindow != "" {
		args = append(args, opts.EnsureWindow)
	}
	if opts.Positioning != "" {
		args = append(args, opts.Positioning)
	}
	return r.record(ctx, "launch", args...)
}

func (r *Recorder) ScreenSize(ctx context.Context) (types.Coordinate, error) {
	if err := r.record(ctx, "screen_size"); err != nil {
		return types.Coordinate{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen, nil
}

func (r *Recorder) Say(ctx context.Context, text string) error {
	return r.record(ctx, "say", text)
}

func (r *Recorder) Direction(name string) (DirectionFunc, bool) {
	r.mu.Lock()
	fn, ok := r.Extra[name]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	return func(ctx context.Context, args ...string) (string, error) {
		if err := r.record(ctx, name, args...); err != nil {
			return "", err
		}
		return fn(ctx, args...)
	}, true
}

func buttonArg(btn types.Button) string {
	if btn == "" {
		return string(types.Left)
	}
	return string(btn)
}
