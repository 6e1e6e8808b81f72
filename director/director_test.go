package director

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/backends"
	"github.com/castanaut/castanaut/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScripts struct {
	sources []string
	output  string
}

func (f *fakeScripts) Execute(ctx context.Context, source string) (string, error) {
	f.sources = append(f.sources, source)
	return f.output, nil
}

func newTestDirector(t *testing.T, opts ...Option) (*Director, *backends.Recorder) {
	t.Helper()
	rec := backends.NewRecorder()
	opts = append([]Option{WithBackend(rec), WithScriptExecutor(&fakeScripts{})}, opts...)
	return New(nil, automation.RunnerFunc(func(ctx context.Context, command string) (string, error) {
		return "", nil
	}), opts...), rec
}

// bare hides the optional capabilities of the wrapped backend.
type bare struct {
	backends.Backend
}

func TestDirector_CursorRoundTrip(t *testing.T) {
	d, _ := newTestDirector(t)
	ctx := context.Background()

	require.NoError(t, d.Cursor(ctx, To(100, 200)))
	p, err := d.CursorLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Point{X: 100, Y: 200}, p)
}

func TestDirector_CursorAppliesOffset(t *testing.T) {
	d, rec := newTestDirector(t)

	require.NoError(t, d.Cursor(context.Background(), To(10, 10), Offset(5, -3)))
	assert.Equal(t, []backends.Call{{Direction: "cursor", Args: []string{"15", "7"}}}, rec.Calls())
}

func TestDirector_CursorNeedsTarget(t *testing.T) {
	d, rec := newTestDirector(t)

	assert.Error(t, d.Cursor(context.Background(), Offset(5, 5)))
	assert.Empty(t, rec.Calls())
}

func TestDirector_ByFromKnownLocation(t *testing.T) {
	d, rec := newTestDirector(t)
	rec.SetCursor(types.Point{X: 50, Y: 60})
	ctx := context.Background()

	to, err := d.By(ctx, 10, -5)
	require.NoError(t, err)
	target, ok := to.Target()
	require.True(t, ok)
	assert.Equal(t, types.Point{X: 60, Y: 55}, target.Point())

	require.NoError(t, d.MoveBy(ctx, 1, 1))
	p, err := d.CursorLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Point{X: 51, Y: 61}, p)
}

func TestDirector_ByUsesCachedCursor(t *testing.T) {
	d, rec := newTestDirector(t)
	ctx := context.Background()

	require.NoError(t, d.Cursor(ctx, To(10, 10)))
	require.NoError(t, d.Drag(ctx, To(30, 40)))

	to, err := d.By(ctx, 5, 5)
	require.NoError(t, err)
	target, _ := to.Target()
	assert.Equal(t, types.Point{X: 35, Y: 45}, target.Point())
	assert.NotContains(t, rec.Directions(), "cursor_location")
}

func TestCombine_LaterWins(t *testing.T) {
	got := Combine(types.Options{Left: types.Int(10), Top: types.Int(5)}, types.Options{Left: types.Int(20)})
	assert.Equal(t, 20, *got.Left)
	assert.Equal(t, 5, *got.Top)
}

func TestDirector_LaunchUsesAppHooks(t *testing.T) {
	d, rec := newTestDirector(t)
	d.Install(&Plugin{
		Name: "browser",
		Apps: map[string]AppHooks{
			"Safari": {EnsureWindow: "make new document"},
		},
	})

	require.NoError(t, d.Launch(context.Background(), "Safari", At(0, 0, 800, 600)))
	assert.Equal(t, []backends.Call{{
		Direction: "launch",
		Args:      []string{"Safari", "0,0,800,600", "make new document"},
	}}, rec.Calls())
}

func TestDirector_OptionalCapabilities(t *testing.T) {
	rec := backends.NewRecorder()
	d := New(nil, nil, WithBackend(bare{rec}))
	ctx := context.Background()

	err := d.Keystroke(ctx, "t", types.ModCommand)
	var ns *types.NotSupportedError
	require.ErrorAs(t, err, &ns)
	assert.Equal(t, "keystroke", ns.Direction)
	assert.Equal(t, backends.LabelRecorder, ns.Backend)

	err = d.ClickMenuItem(ctx, "Finder", "File", "New Folder")
	assert.ErrorIs(t, err, types.ErrNotSupported)

	d2, rec2 := newTestDirector(t)
	require.NoError(t, d2.Keystroke(ctx, "t"))
	assert.Equal(t, []string{"keystroke"}, rec2.Directions())
}

func TestDirector_DeclinedDirection(t *testing.T) {
	d, rec := newTestDirector(t)
	rec.Decline["mousedown"] = true

	err := d.MouseDown(context.Background(), types.Left)
	var ns *types.NotSupportedError
	require.ErrorAs(t, err, &ns)
	assert.Equal(t, "mousedown", ns.Direction)
}

func TestDirector_Invoke(t *testing.T) {
	d, rec := newTestDirector(t)
	ctx := context.Background()

	rec.Extra["beep"] = func(ctx context.Context, args ...string) (string, error) {
		return "beeped", nil
	}
	d.Install(&Plugin{
		Name: "greeter",
		Directions: func(d *Director) map[string]DirectionFunc {
			return map[string]DirectionFunc{
				"greet": func(ctx context.Context, args ...string) (string, error) {
					return "hello " + args[0], nil
				},
			}
		},
	})

	out, err := d.Invoke(ctx, "greet", "world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	out, err = d.Invoke(ctx, "beep")
	require.NoError(t, err)
	assert.Equal(t, "beeped", out)

	_, err = d.Invoke(ctx, "teleport", "mars")
	var ns *types.NotSupportedError
	require.ErrorAs(t, err, &ns)
	assert.Equal(t, "teleport", ns.Direction)
	assert.Equal(t, "Dry run doesn't support teleport", err.Error())

	assert.True(t, d.Supports("greet"))
	assert.True(t, d.Supports("beep"))
	assert.False(t, d.Supports("teleport"))
}

func TestDirector_PluginDirectionsWinOverBackend(t *testing.T) {
	d, rec := newTestDirector(t)
	rec.Extra["beep"] = func(ctx context.Context, args ...string) (string, error) {
		return "backend", nil
	}
	d.Install(&Plugin{Directions: func(d *Director) map[string]DirectionFunc {
		return map[string]DirectionFunc{
			"beep": func(ctx context.Context, args ...string) (string, error) { return "plugin", nil },
		}
	}})

	out, err := d.Invoke(context.Background(), "beep")
	require.NoError(t, err)
	assert.Equal(t, "plugin", out)
}

func TestDirector_PerformSkip(t *testing.T) {
	d, _ := newTestDirector(t)
	ctx := context.Background()

	var steps []string
	err := d.Perform(ctx, "intro", func(ctx context.Context) error {
		steps = append(steps, "before")
		if err := d.Skip(); err != nil {
			return err
		}
		steps = append(steps, "more code")
		return nil
	})
	require.NoError(t, err)
	steps = append(steps, "after")

	assert.Equal(t, []string{"before", "after"}, steps)
}

func TestDirector_PerformPropagatesErrors(t *testing.T) {
	d, _ := newTestDirector(t)
	boom := errors.New("boom")

	err := d.Perform(context.Background(), "broken", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	wrapped := d.Perform(context.Background(), "wrapped skip", func(ctx context.Context) error {
		return d.Perform(ctx, "inner", func(ctx context.Context) error { return d.Skip() })
	})
	assert.NoError(t, wrapped)
}

func TestDirector_WhileSaying(t *testing.T) {
	d, rec := newTestDirector(t)
	ctx := context.Background()

	ran := false
	require.NoError(t, d.WhileSaying(ctx, "watch this", func(ctx context.Context) error {
		ran = true
		return d.Click(ctx, types.Left)
	}))
	assert.True(t, ran)
	assert.ElementsMatch(t, []string{"say", "click"}, rec.Directions())
}

func TestDirector_WhileSayingErrors(t *testing.T) {
	d, rec := newTestDirector(t)
	rec.Fail["say"] = errors.New("no voice")
	ctx := context.Background()

	assert.NoError(t, d.WhileSaying(ctx, "quiet", func(ctx context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, d.WhileSaying(ctx, "loud", func(ctx context.Context) error { return boom }), boom)
}

func TestDirector_Pause(t *testing.T) {
	d, _ := newTestDirector(t)

	require.NoError(t, d.Pause(context.Background(), 10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, d.Pause(ctx, time.Minute), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDirector_CancelledContextStopsDirections(t *testing.T) {
	d, rec := newTestDirector(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Click(ctx, types.Left), context.Canceled)
	assert.ErrorIs(t, d.Type(ctx, "late"), context.Canceled)
	_, err := d.Invoke(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Calls())
}

func TestDirector_BackendResolvedOnce(t *testing.T) {
	calls := 0
	reg := backends.NewRegistry()
	reg.Register("rec", "Recorder", backends.Always, func(host backends.Host) (backends.Backend, error) {
		calls++
		return backends.NewRecorder(), nil
	})

	d := New(reg, nil)
	for range 3 {
		_, err := d.Backend()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestDirector_BackendFailureCached(t *testing.T) {
	d := New(backends.NewRegistry(), nil)

	_, err := d.Backend()
	assert.ErrorIs(t, err, types.ErrNoCompatibleBackend)
	assert.ErrorIs(t, d.Click(context.Background(), types.Left), types.ErrNoCompatibleBackend)

	_, err = New(nil, nil).Label()
	assert.ErrorIs(t, err, types.ErrNoCompatibleBackend)
}

func TestDirector_RunAndExecuteScript(t *testing.T) {
	var commands []string
	scripts := &fakeScripts{output: "done"}
	d := New(nil, automation.RunnerFunc(func(ctx context.Context, command string) (string, error) {
		commands = append(commands, command)
		if command == "false" {
			return "", &types.ExternalActionError{Command: command, ExitCode: 1}
		}
		return "ok\n", nil
	}), WithScriptExecutor(scripts))
	ctx := context.Background()

	out, err := d.Run(ctx, "echo ok")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = d.Run(ctx, "false")
	assert.ErrorIs(t, err, types.ErrExternalAction)

	out, err = d.ExecuteScript(ctx, "beep")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []string{"beep"}, scripts.sources)
	assert.Equal(t, []string{"echo ok", "false"}, commands)
}
