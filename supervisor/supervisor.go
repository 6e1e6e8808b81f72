// Package supervisor runs a screenplay to completion. A monitored run is
// bracketed by a sentinel file: deleting the file from outside stops the
// movie. Whatever way a run ends, the end-of-movie actions run exactly once
// before Run returns.
package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/screenplay"
	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State is a step of a run's lifecycle.
type State string

const (
	StateIdle             State = "idle"
	StateSentinelCreated  State = "sentinel_created"
	StateRunning          State = "running"
	StateNormalCompletion State = "normal_completion"
	StateScriptError      State = "script_error"
	StateUserAborted      State = "user_aborted"
	StateCleanupRan       State = "cleanup_ran"
	StateSentinelRemoved  State = "sentinel_removed"
	StateTerminal         State = "terminal"
)

// Config controls sentinel monitoring.
type Config struct {
	SentinelPath string
	PollInterval time.Duration
	// GracePeriod bounds how long an aborted screenplay may take to notice
	// its cancelled context. Zero means config.DefaultGracePeriod. A
	// screenplay still running when it expires is abandoned: credits run
	// while its goroutine may yet perform a direction.
	GracePeriod time.Duration
}

// ConfigFrom extracts the supervisor settings from the run section.
func ConfigFrom(c *config.Config) Config {
	return Config{
		SentinelPath: c.Run.SentinelPath,
		PollInterval: c.Run.PollInterval,
		GracePeriod:  c.Run.GracePeriod,
	}
}

// Outcome summarises a finished run.
type Outcome struct {
	RunID    string
	State    State
	Err      error
	Duration time.Duration
}

// OK reports whether the screenplay completed normally.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Supervisor performs a single run. Create one per run.
type Supervisor struct {
	cfg   Config
	runID string

	mu     sync.Mutex
	states []State
	ending State
}

func New(cfg Config) *Supervisor {
	if cfg.SentinelPath == "" {
		cfg.SentinelPath = config.DefaultSentinelPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.DefaultPollInterval
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = config.DefaultGracePeriod
	}

	return &Supervisor{
		cfg:    cfg,
		runID:  uuid.NewString(),
		states: []State{StateIdle},
	}
}

// RunID identifies this run in logs and server responses.
func (s *Supervisor) RunID() string {
	return s.runID
}

// SentinelPath returns the file that marks this run as in progress.
func (s *Supervisor) SentinelPath() string {
	return s.cfg.SentinelPath
}

// States returns the transitions so far, starting with StateIdle.
func (s *Supervisor) States() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.states...)
}

// State returns the most recent state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[len(s.states)-1]
}

func (s *Supervisor) enter(state State) {
	s.mu.Lock()
	s.states = append(s.states, state)
	switch state {
	case StateNormalCompletion, StateScriptError, StateUserAborted:
		s.ending = state
	}
	s.mu.Unlock()
}

func (s *Supervisor) logger(play screenplay.Screenplay) *logrus.Entry {
	return utils.WithFields(logrus.Fields{"run": s.runID, "screenplay": play.Name()})
}

// Run performs play against d. With monitor set, the sentinel file exists
// for the duration of the run and its removal aborts the screenplay with
// types.ErrAbortedByUser. Cancelling ctx fails the run with ctx's error.
func (s *Supervisor) Run(ctx context.Context, d *director.Director, play screenplay.Screenplay, monitor bool) error {
	log := s.logger(play)
	if !monitor {
		return s.runInline(ctx, d, play, log)
	}
	return s.runMonitored(ctx, d, play, log)
}

func (s *Supervisor) runInline(ctx context.Context, d *director.Director, play screenplay.Screenplay, log *logrus.Entry) error {
	s.enter(StateRunning)
	log.Debug("performing inline")

	err := perform(ctx, d, play)
	s.settle(err)

	err = s.rollCredits(ctx, d, err, log)
	s.enter(StateTerminal)
	return err
}

func (s *Supervisor) runMonitored(ctx context.Context, d *director.Director, play screenplay.Screenplay, log *logrus.Entry) error {
	path := s.cfg.SentinelPath
	if err := os.WriteFile(path, nil, 0644); err != nil {
		s.enter(StateTerminal)
		return errors.Wrapf(err, "failed to create sentinel %s", path)
	}
	s.enter(StateSentinelCreated)
	log.WithField("sentinel", path).Debug("sentinel created")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	s.enter(StateRunning)
	go func() {
		done <- perform(runCtx, d, play)
	}()

	err := s.watch(path, done, log)
	if errors.Is(err, types.ErrAbortedByUser) {
		log.Info("sentinel removed, stopping screenplay")
		cancel()
		s.awaitUnit(done, log)
	}
	s.settle(err)

	err = s.rollCredits(ctx, d, err, log)

	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		log.WithError(rmErr).Warn("failed to remove sentinel")
	}
	s.enter(StateSentinelRemoved)
	s.enter(StateTerminal)
	return err
}

// watch blocks until the unit of work finishes or the sentinel disappears.
// The ticker keeps watching when fsnotify is unavailable or misses an event.
func (s *Supervisor) watch(path string, done <-chan error, log *logrus.Entry) error {
	var events <-chan fsnotify.Event
	var watchErrs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Debug("file watching unavailable, polling only")
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			log.WithError(err).Debug("failed to watch sentinel directory, polling only")
		} else {
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return err
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == filepath.Clean(path) && ev.Has(fsnotify.Remove|fsnotify.Rename) && !exists(path) {
				return aborted(done)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.WithError(err).Debug("sentinel watcher error")
		case <-ticker.C:
			if !exists(path) {
				return aborted(done)
			}
		}
	}
}

// aborted resolves a sentinel removal. A unit that already finished keeps
// its own result.
func aborted(done <-chan error) error {
	select {
	case err := <-done:
		return err
	default:
		return types.ErrAbortedByUser
	}
}

// awaitUnit gives a cancelled screenplay GracePeriod to return.
func (s *Supervisor) awaitUnit(done <-chan error, log *logrus.Entry) {
	timer := time.NewTimer(s.cfg.GracePeriod)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Warn("screenplay failed while stopping")
		}
	case <-timer.C:
		log.Warnf("screenplay did not stop within %s", s.cfg.GracePeriod)
	}
}

func (s *Supervisor) settle(err error) {
	switch {
	case err == nil:
		s.enter(StateNormalCompletion)
	case errors.Is(err, types.ErrAbortedByUser):
		s.enter(StateUserAborted)
	default:
		s.enter(StateScriptError)
	}
}

// rollCredits runs the end-of-movie actions on a context that survives the
// run's cancellation. A screenplay error takes precedence over credit
// failures.
func (s *Supervisor) rollCredits(ctx context.Context, d *director.Director, runErr error, log *logrus.Entry) error {
	creditErr := d.RollCredits(context.WithoutCancel(ctx))
	s.enter(StateCleanupRan)

	if creditErr == nil {
		return runErr
	}
	if runErr != nil {
		log.WithError(creditErr).Warn("end of movie failed")
		return runErr
	}
	return creditErr
}

// Supervise runs play and reports the result instead of returning an
// error. Abnormal exits are logged with their stack trace.
func (s *Supervisor) Supervise(ctx context.Context, d *director.Director, play screenplay.Screenplay, monitor bool) (out Outcome) {
	start := time.Now()
	log := s.logger(play)

	defer func() {
		if r := recover(); r != nil {
			out.Err = errors.Errorf("supervisor panicked: %v", r)
			out.State = s.State()
		}
		out.RunID = s.runID
		out.Duration = time.Since(start)
		if out.Err != nil {
			log.WithField("state", out.State).Errorf("ABNORMAL EXIT: %+v", errors.WithStack(out.Err))
		} else {
			log.WithField("duration", out.Duration).Info("that's a wrap")
		}
	}()

	out.Err = s.Run(ctx, d, play, monitor)

	s.mu.Lock()
	out.State = s.ending
	s.mu.Unlock()
	if out.State == "" {
		out.State = s.State()
	}
	return out
}

// perform runs the screenplay, turning a panic into an error with the
// panicking goroutine's stack.
func perform(ctx context.Context, d *director.Director, play screenplay.Screenplay) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("screenplay %s panicked: %v", play.Name(), r)
		}
	}()
	return play.Perform(ctx, d)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stop requests that the monitored run using path end, by deleting the
// sentinel. It reports whether a run was in progress.
func Stop(path string) (bool, error) {
	if path == "" {
		path = config.DefaultSentinelPath
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to remove sentinel %s", path)
	}
	return true, nil
}

// Running reports whether a monitored run appears to be in progress.
func Running(path string) bool {
	if path == "" {
		path = config.DefaultSentinelPath
	}
	return exists(path)
}
