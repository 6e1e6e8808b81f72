package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/castanaut/castanaut/backends"
	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/screenplay"
	"github.com/castanaut/castanaut/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	return New(Config{
		SentinelPath: filepath.Join(t.TempDir(), "castanaut.running"),
		PollInterval: 50 * time.Millisecond,
		GracePeriod:  time.Second,
	})
}

func newDirector() (*director.Director, *backends.Recorder) {
	rec := backends.NewRecorder()
	return director.New(nil, nil, director.WithBackend(rec)), rec
}

// withCredit registers a counting end-of-movie action before running fn.
func withCredit(counter *int32, fn func(ctx context.Context, d *director.Director) error) screenplay.Screenplay {
	return screenplay.New("test", func(ctx context.Context, d *director.Director) error {
		d.AtEndOfMovie(func(ctx context.Context) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			atomic.AddInt32(counter, 1)
			return nil
		})
		return fn(ctx, d)
	})
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, config.DefaultSentinelPath, s.SentinelPath())
	assert.Equal(t, config.DefaultPollInterval, s.cfg.PollInterval)
	assert.Equal(t, config.DefaultGracePeriod, s.cfg.GracePeriod)
	assert.NotEmpty(t, s.RunID())
	assert.NotEqual(t, s.RunID(), New(Config{}).RunID())
	assert.Equal(t, []State{StateIdle}, s.States())
}

func TestNew_NonPositiveGracePeriod(t *testing.T) {
	assert.Equal(t, config.DefaultGracePeriod, New(Config{GracePeriod: -time.Second}).cfg.GracePeriod)
	assert.Equal(t, 3*time.Second, New(Config{GracePeriod: 3 * time.Second}).cfg.GracePeriod)
}

func TestAborted_FinishedUnitKeepsItsResult(t *testing.T) {
	done := make(chan error, 1)
	assert.ErrorIs(t, aborted(done), types.ErrAbortedByUser)

	boom := errors.New("boom")
	done <- boom
	assert.Equal(t, boom, aborted(done))

	done <- nil
	assert.NoError(t, aborted(done))
}

func TestWatch_UnitFinishedBeforeSentinelRemoval(t *testing.T) {
	s := newSupervisor(t)
	log := s.logger(screenplay.New("test", nil))

	// the sentinel never existed, so every poll sees it removed
	boom := errors.New("boom")
	done := make(chan error, 1)
	done <- boom
	assert.Equal(t, boom, s.watch(s.SentinelPath(), done, log))
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Run.SentinelPath = "/tmp/other.running"
	cfg.Run.PollInterval = time.Second

	got := ConfigFrom(cfg)
	assert.Equal(t, "/tmp/other.running", got.SentinelPath)
	assert.Equal(t, time.Second, got.PollInterval)
	assert.Equal(t, config.DefaultGracePeriod, got.GracePeriod)
}

func TestRun_InlineSuccess(t *testing.T) {
	s := newSupervisor(t)
	d, rec := newDirector()
	var credits int32

	play := withCredit(&credits, func(ctx context.Context, d *director.Director) error {
		return d.Say(ctx, "hello")
	})

	require.NoError(t, s.Run(context.Background(), d, play, false))
	assert.EqualValues(t, 1, credits)
	assert.Equal(t, []string{"say"}, rec.Directions())
	assert.Equal(t, []State{StateIdle, StateRunning, StateNormalCompletion, StateCleanupRan, StateTerminal}, s.States())

	_, err := os.Stat(s.SentinelPath())
	assert.True(t, os.IsNotExist(err), "inline runs never create the sentinel")
}

func TestRun_InlineError(t *testing.T) {
	s := newSupervisor(t)
	d, _ := newDirector()
	var credits int32
	boom := errors.New("boom")

	play := withCredit(&credits, func(ctx context.Context, d *director.Director) error {
		return boom
	})

	err := s.Run(context.Background(), d, play, false)
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, credits)
	assert.Equal(t, []State{StateIdle, StateRunning, StateScriptError, StateCleanupRan, StateTerminal}, s.States())
}

func TestRun_MonitoredSuccess(t *testing.T) {
	s := newSupervisor(t)
	d, _ := newDirector()
	var credits int32
	var sawSentinel bool

	play := withCredit(&credits, func(ctx context.Context, d *director.Director) error {
		sawSentinel = Running(s.SentinelPath())
		return nil
	})

	require.NoError(t, s.Run(context.Background(), d, play, true))
	assert.True(t, sawSentinel)
	assert.False(t, Running(s.SentinelPath()))
	assert.EqualValues(t, 1, credits)
	assert.Equal(t, []State{
		StateIdle, StateSentinelCreated, StateRunning, StateNormalCompletion,
		StateCleanupRan, StateSentinelRemoved, StateTerminal,
	}, s.States())
}

func TestRun_MonitoredError(t *testing.T) {
	s := newSupervisor(t)
	d, rec := newDirector()
	rec.Fail = map[string]error{"keystroke": &types.ExternalActionError{Command: "osascript", ExitCode: 1}}
	var credits int32

	play := withCredit(&credits, func(ctx context.Context, d *director.Director) error {
		return d.Keystroke(ctx, "a")
	})

	err := s.Run(context.Background(), d, play, true)
	assert.ErrorIs(t, err, types.ErrExternalAction)
	assert.EqualValues(t, 1, credits)
	assert.False(t, Running(s.SentinelPath()))
	assert.Contains(t, s.States(), StateScriptError)
}

func TestRun_AbortWhenSentinelRemoved(t *testing.T) {
	s := newSupervisor(t)
	d, _ := newDirector()
	var credits int32
	started := make(chan struct{})

	play := withCredit(&credits, func(ctx context.Context, d *director.Director) error {
		close(started)
		return d.Pause(ctx, time.Minute)
	})

	go func() {
		<-started
		_, _ = Stop(s.SentinelPath())
	}()

	begin := time.Now()
	err := s.Run(context.Background(), d, play, true)
	assert.ErrorIs(t, err, types.ErrAbortedByUser)
	assert.Less(t, time.Since(begin), time.Second)
	assert.EqualValues(t, 1, credits, "credits run before Run returns")
	assert.Equal(t, []State{
		StateIdle, StateSentinelCreated, StateRunning, StateUserAborted,
		StateCleanupRan, StateSentinelRemoved, StateTerminal,
	}, s.States())
}

func TestRun_AbortCancelsFurtherDirections(t *testing.T) {
	s := newSupervisor(t)
	d, rec := newDirector()
	started := make(chan struct{})

	play := screenplay.New("loop", func(ctx context.Context, d *director.Director) error {
		close(started)
		for {
			if err := d.Pause(ctx, 10*time.Millisecond); err != nil {
				return err
			}
			if err := d.Click(ctx, types.Left); err != nil {
				return err
			}
		}
	})

	go func() {
		<-started
		time.Sleep(60 * time.Millisecond)
		_, _ = Stop(s.SentinelPath())
	}()

	err := s.Run(context.Background(), d, play, true)
	require.ErrorIs(t, err, types.ErrAbortedByUser)

	clicks := len(rec.Calls())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, clicks, len(rec.Calls()), "no directions after the run returned")
}

func TestRun_ParentCancelIsScriptError(t *testing.T) {
	s := newSupervisor(t)
	d, _ := newDirector()
	var credits int32

	ctx, cancel := context.WithCancel(context.Background())
	play := withCredit(&credits, func(ctx context.Context, d *director.Director) error {
		cancel()
		return d.Pause(ctx, time.Minute)
	})

	err := s.Run(ctx, d, play, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrAbortedByUser)
	assert.EqualValues(t, 1, credits, "credits run on a live context")
	assert.Contains(t, s.States(), StateScriptError)
	assert.NotContains(t, s.States(), StateUserAborted)
}

func TestRun_PanicIsRecovered(t *testing.T) {
	for _, monitor := range []bool{false, true} {
		s := newSupervisor(t)
		d, _ := newDirector()
		var credits int32

		play := withCredit(&credits, func(ctx context.Context, d *director.Director) error {
			panic("lost the script")
		})

		err := s.Run(context.Background(), d, play, monitor)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lost the script")
		assert.EqualValues(t, 1, credits)
		assert.Contains(t, s.States(), StateScriptError)
	}
}

func TestRun_CreditFailure(t *testing.T) {
	creditErr := errors.New("recording not saved")

	t.Run("reported when the screenplay succeeded", func(t *testing.T) {
		s := newSupervisor(t)
		d, _ := newDirector()
		play := screenplay.New("credits", func(ctx context.Context, d *director.Director) error {
			d.AtEndOfMovie(func(ctx context.Context) error { return creditErr })
			return nil
		})

		err := s.Run(context.Background(), d, play, false)
		assert.ErrorIs(t, err, creditErr)
	})

	t.Run("screenplay error wins", func(t *testing.T) {
		s := newSupervisor(t)
		d, _ := newDirector()
		boom := errors.New("boom")
		play := screenplay.New("credits", func(ctx context.Context, d *director.Director) error {
			d.AtEndOfMovie(func(ctx context.Context) error { return creditErr })
			return boom
		})

		err := s.Run(context.Background(), d, play, true)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, creditErr)
	})
}

func TestRun_SentinelNotCreatable(t *testing.T) {
	s := New(Config{SentinelPath: filepath.Join(t.TempDir(), "missing", "castanaut.running")})
	d, rec := newDirector()
	play := screenplay.New("never", func(ctx context.Context, d *director.Director) error {
		return d.Say(ctx, "unreachable")
	})

	err := s.Run(context.Background(), d, play, true)
	assert.Error(t, err)
	assert.Empty(t, rec.Calls())
	assert.Equal(t, StateTerminal, s.State())
}

func TestSupervise_Outcome(t *testing.T) {
	s := newSupervisor(t)
	d, _ := newDirector()
	started := make(chan struct{})

	play := screenplay.New("aborted", func(ctx context.Context, d *director.Director) error {
		close(started)
		return d.Pause(ctx, time.Minute)
	})
	go func() {
		<-started
		_, _ = Stop(s.SentinelPath())
	}()

	out := s.Supervise(context.Background(), d, play, true)
	assert.Equal(t, s.RunID(), out.RunID)
	assert.Equal(t, StateUserAborted, out.State)
	assert.ErrorIs(t, out.Err, types.ErrAbortedByUser)
	assert.False(t, out.OK())
	assert.Greater(t, out.Duration, time.Duration(0))
}

func TestSupervise_Success(t *testing.T) {
	s := newSupervisor(t)
	d, _ := newDirector()
	play := screenplay.New("fine", func(ctx context.Context, d *director.Director) error {
		return nil
	})

	out := s.Supervise(context.Background(), d, play, false)
	assert.True(t, out.OK())
	assert.Equal(t, StateNormalCompletion, out.State)
}

func TestStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castanaut.running")

	stopped, err := Stop(path)
	require.NoError(t, err)
	assert.False(t, stopped)

	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.True(t, Running(path))

	stopped, err = Stop(path)
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.False(t, Running(path))
}
