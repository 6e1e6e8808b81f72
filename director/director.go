// Package director provides the Director, the object screenplays talk to.
// It owns the cursor cache and the end-of-movie credits, resolves the
// backend lazily, and is the single place where a direction the backend
// lacks becomes a NotSupported error.
package director

import (
	"context"
	"fmt"
	"sync"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/backends"
	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DirectionFunc is a named direction, installed by plugins or offered by a
// backend extension.
type DirectionFunc = backends.DirectionFunc

// ScriptExecutor runs AppleScript source.
type ScriptExecutor interface {
	Execute(ctx context.Context, source string) (string, error)
}

// Director executes stage directions against the resolved backend.
type Director struct {
	registry *backends.Registry
	runner   automation.Runner
	scripts  ScriptExecutor

	screenplayPath string
	resourceDir    string

	backendOnce sync.Once
	backend     backends.Backend
	backendErr  error

	mu         sync.Mutex
	cursor     *types.Point
	directions map[string]DirectionFunc
	apps       map[string]AppHooks
	loaded     map[string]bool

	catalog Catalog
	loader  PluginLoader

	credits     *Credits
	scriptCache *lru.Cache[string, string]
}

// Option configures a Director.
type Option func(*Director)

// WithScriptExecutor replaces the osascript executor.
func WithScriptExecutor(e ScriptExecutor) Option {
	return func(d *Director) {
		d.scripts = e
	}
}

// WithScreenplayPath sets the screenplay being run; plugins and scripts are
// looked up next to it.
func WithScreenplayPath(path string) Option {
	return func(d *Director) {
		d.screenplayPath = path
	}
}

// WithResourceDir adds a directory searched by LoadScript after the
// screenplay's own scripts directory.
func WithResourceDir(dir string) Option {
	return func(d *Director) {
		d.resourceDir = dir
	}
}

// WithPlugins sets the built-in plugin catalog.
func WithPlugins(catalog Catalog) Option {
	return func(d *Director) {
		d.catalog = catalog
	}
}

// WithPluginLoader sets the loader for screenplay-relative plugins.
func WithPluginLoader(loader PluginLoader) Option {
	return func(d *Director) {
		d.loader = loader
	}
}

// WithBackend skips resolution and uses b.
func WithBackend(b backends.Backend) Option {
	return func(d *Director) {
		d.backendOnce.Do(func() {
			d.backend = b
		})
	}
}

// New creates a Director resolving its backend from registry. A nil runner
// runs commands through /bin/sh.
func New(registry *backends.Registry, runner automation.Runner, opts ...Option) *Director {
	if runner == nil {
		runner = automation.NewShellRunner("")
	}

	cache, _ := lru.New[string, string](64)
	d := &Director{
		registry:    registry,
		runner:      runner,
		directions:  make(map[string]DirectionFunc),
		apps:        make(map[string]AppHooks),
		loaded:      make(map[string]bool),
		credits:     NewCredits(),
		scriptCache: cache,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.scripts == nil {
		d.scripts = automation.NewScriptExecutor(runner, config.DefaultAppleScriptPath)
	}
	return d
}

// Backend returns the active backend, resolving it on first use. The result
// of the first resolution, success or failure, is kept for the Director's
// lifetime.
func (d *Director) Backend() (backends.Backend, error) {
	d.backendOnce.Do(func() {
		if d.registry == nil {
			d.backendErr = fmt.Errorf("%w: no registry", types.ErrNoCompatibleBackend)
			return
		}
		d.backend, d.backendErr = d.registry.Resolve(d)
	})
	return d.backend, d.backendErr
}

// Label returns the active backend's label.
func (d *Director) Label() (string, error) {
	b, err := d.Backend()
	if err != nil {
		return "", err
	}
	return b.Label(), nil
}

// ScreenplayPath returns the screenplay this Director runs, if any.
func (d *Director) ScreenplayPath() string {
	return d.screenplayPath
}

// Run executes a shell command and returns its stdout. A non-zero exit is
// reported as *types.ExternalActionError.
func (d *Director) Run(ctx context.Context, command string) (string, error) {
	return d.runner.Run(ctx, command)
}

// ExecuteScript runs AppleScript source and returns its result.
func (d *Director) ExecuteScript(ctx context.Context, source string) (string, error) {
	return d.scripts.Execute(ctx, source)
}

// use returns the backend for a direction about to run under ctx.
func (d *Director) use(ctx context.Context) (backends.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Backend()
}

func (d *Director) setCursor(p types.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = &p
}

func (d *Director) cachedCursor() (types.Point, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cursor == nil {
		return types.Point{}, false
	}
	return *d.cursor, true
}
