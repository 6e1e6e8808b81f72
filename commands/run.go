package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/castanaut/castanaut/screenplay"
	"github.com/castanaut/castanaut/supervisor"
)

// RunRequest represents the parameters for running a screenplay
type RunRequest struct {
	Path string `json:"path"`
	// NoMonitor performs the screenplay inline, without a sentinel file.
	NoMonitor bool `json:"noMonitor,omitempty"`
	DryRun    bool `json:"dryRun,omitempty"`
}

// RunResult describes a finished or in-progress run
type RunResult struct {
	RunID      string `json:"runId"`
	Screenplay string `json:"screenplay"`
	State      string `json:"state"`
	Duration   string `json:"duration,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StopResult reports whether a stop request found a run to stop
type StopResult struct {
	Sentinel string `json:"sentinel"`
	Stopped  bool   `json:"stopped"`
}

type preparedRun struct {
	play    screenplay.Screenplay
	sup     *supervisor.Supervisor
	monitor bool
	run     func(ctx context.Context) supervisor.Outcome
}

func prepareRun(req RunRequest) (*preparedRun, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("screenplay path is required")
	}

	path, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid screenplay path: %w", err)
	}

	play, err := screenplay.Load(path)
	if err != nil {
		return nil, err
	}

	d, err := NewDirector(DirectorOptions{ScreenplayPath: path, DryRun: req.DryRun})
	if err != nil {
		return nil, err
	}

	sup := supervisor.New(supervisor.ConfigFrom(GetConfig()))
	monitor := !req.NoMonitor && GetConfig().Run.Monitor
	return &preparedRun{
		play:    play,
		sup:     sup,
		monitor: monitor,
		run: func(ctx context.Context) supervisor.Outcome {
			return sup.Supervise(ctx, d, play, monitor)
		},
	}, nil
}

func resultOf(name string, out supervisor.Outcome) RunResult {
	res := RunResult{
		RunID:      out.RunID,
		Screenplay: name,
		State:      string(out.State),
		Duration:   out.Duration.Round(time.Millisecond).String(),
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	return res
}

// RunCommand performs a screenplay to completion
func RunCommand(ctx context.Context, req RunRequest) *CommandResponse {
	if req.Path != "" && !req.NoMonitor && supervisor.Running(GetConfig().Run.SentinelPath) {
		return NewErrorResponse(fmt.Errorf("a screenplay is already running; stop it with 'castanaut stop'"))
	}

	p, err := prepareRun(req)
	if err != nil {
		return NewErrorResponse(err)
	}

	out := p.run(ctx)
	res := resultOf(p.play.Name(), out)
	if out.Err != nil {
		return &CommandResponse{Status: "error", Data: res, Error: out.Err.Error()}
	}
	return NewSuccessResponse(res)
}

// StopCommand asks the monitored run in progress to stop
func StopCommand() *CommandResponse {
	path := GetConfig().Run.SentinelPath
	stopped, err := supervisor.Stop(path)
	if err != nil {
		return NewErrorResponse(err)
	}
	return NewSuccessResponse(StopResult{Sentinel: path, Stopped: stopped})
}

// ToggleCommand stops the run in progress when there is one, and otherwise
// runs the screenplay.
func ToggleCommand(ctx context.Context, req RunRequest) *CommandResponse {
	if supervisor.Running(GetConfig().Run.SentinelPath) {
		return StopCommand()
	}
	if req.Path == "" {
		return NewErrorResponse(fmt.Errorf("no screenplay is running and none was given"))
	}
	return RunCommand(ctx, req)
}

// background tracks the screenplay started by StartRunCommand.
var background struct {
	sync.Mutex
	name    string
	monitor bool
	sup     *supervisor.Supervisor
	cancel  context.CancelFunc
	done    chan struct{}
	result  *RunResult
}

// StartRunCommand starts a screenplay without waiting for it. Only one
// background run may be active at a time.
func StartRunCommand(req RunRequest) *CommandResponse {
	background.Lock()
	defer background.Unlock()

	if background.done != nil {
		select {
		case <-background.done:
		default:
			return NewErrorResponse(fmt.Errorf("screenplay %s is already running", background.name))
		}
	}

	p, err := prepareRun(req)
	if err != nil {
		return NewErrorResponse(err)
	}
	if p.monitor && supervisor.Running(p.sup.SentinelPath()) {
		return NewErrorResponse(fmt.Errorf("a screenplay is already running; stop it with 'castanaut stop'"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	background.name = p.play.Name()
	background.monitor = p.monitor
	background.sup = p.sup
	background.cancel = cancel
	background.done = done
	background.result = nil

	go func() {
		defer close(done)
		defer cancel()
		res := resultOf(p.play.Name(), p.run(ctx))

		background.Lock()
		background.result = &res
		background.Unlock()
	}()

	return NewSuccessResponse(RunResult{
		RunID:      p.sup.RunID(),
		Screenplay: p.play.Name(),
		State:      string(supervisor.StateRunning),
	})
}

// StopRunCommand stops the background run. Monitored runs are stopped
// through their sentinel, exactly as an external stop would; inline runs
// are cancelled.
func StopRunCommand() *CommandResponse {
	background.Lock()
	sup, cancel, done, monitor := background.sup, background.cancel, background.done, background.monitor
	background.Unlock()

	if done == nil {
		return NewSuccessResponse(StopResult{Stopped: false})
	}
	select {
	case <-done:
		return NewSuccessResponse(StopResult{Sentinel: sup.SentinelPath(), Stopped: false})
	default:
	}

	if !monitor {
		cancel()
		return NewSuccessResponse(StopResult{Stopped: true})
	}

	stopped, err := supervisor.Stop(sup.SentinelPath())
	if err != nil {
		return NewErrorResponse(err)
	}
	return NewSuccessResponse(StopResult{Sentinel: sup.SentinelPath(), Stopped: stopped})
}

// RunStatusCommand reports on the background run
func RunStatusCommand() *CommandResponse {
	background.Lock()
	defer background.Unlock()

	if background.sup == nil {
		return NewSuccessResponse(map[string]interface{}{"state": string(supervisor.StateIdle)})
	}
	if background.result != nil {
		return NewSuccessResponse(*background.result)
	}
	return NewSuccessResponse(RunResult{
		RunID:      background.sup.RunID(),
		Screenplay: background.name,
		State:      string(background.sup.State()),
	})
}

// WaitRun blocks until the background run finishes or ctx is done.
func WaitRun(ctx context.Context) error {
	background.Lock()
	done := background.done
	background.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
