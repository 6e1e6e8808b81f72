package commands

import (
	"fmt"
	"sync"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/backends"
	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/plugins"
	"github.com/castanaut/castanaut/screenplay"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

var (
	mu sync.Mutex

	// backendRegistry is set once at startup via SetRegistry.
	backendRegistry *backends.Registry
	currentConfig   *config.Config

	// sharedDirector serves interactive directions from the CLI and server,
	// so the cursor cache survives between requests.
	sharedDirector *director.Director
)

// SetRegistry sets the backend registry every Director resolves against.
// This should be called once at application startup.
func SetRegistry(registry *backends.Registry) {
	mu.Lock()
	defer mu.Unlock()
	backendRegistry = registry
	sharedDirector = nil
}

// GetRegistry returns the current backend registry.
// Returns nil if SetRegistry has not been called yet.
func GetRegistry() *backends.Registry {
	mu.Lock()
	defer mu.Unlock()
	return backendRegistry
}

// SetConfig replaces the active configuration.
func SetConfig(cfg *config.Config) {
	mu.Lock()
	defer mu.Unlock()
	currentConfig = cfg
	sharedDirector = nil
}

// GetConfig returns the active configuration, or the defaults when none was
// set.
func GetConfig() *config.Config {
	mu.Lock()
	defer mu.Unlock()
	if currentConfig == nil {
		currentConfig = config.Default()
	}
	return currentConfig
}

// DirectorOptions select what a new Director is bound to.
type DirectorOptions struct {
	ScreenplayPath string
	// DryRun pins the recording backend instead of probing the system.
	DryRun bool
}

// NewDirector builds a Director from the active registry and configuration.
func NewDirector(opts DirectorOptions) (*director.Director, error) {
	cfg := GetConfig()
	registry := GetRegistry()
	if registry == nil && !opts.DryRun {
		return nil, fmt.Errorf("backend registry is not initialized")
	}

	runner := automation.NewShellRunner(cfg.Automation.Shell)
	dirOpts := []director.Option{
		director.WithScriptExecutor(automation.NewScriptExecutor(runner, cfg.Automation.AppleScriptPath)),
		director.WithResourceDir(cfg.Automation.ScriptsDir),
		director.WithPlugins(plugins.Builtin()),
		director.WithPluginLoader(screenplay.PluginLoader),
	}
	if opts.ScreenplayPath != "" {
		dirOpts = append(dirOpts, director.WithScreenplayPath(opts.ScreenplayPath))
	}
	if opts.DryRun || cfg.Run.DryRun {
		dirOpts = append(dirOpts, director.WithBackend(backends.NewRecorder()))
	}

	return director.New(registry, runner, dirOpts...), nil
}

// GetDirector returns the process-wide Director for interactive directions,
// creating it on first use.
func GetDirector() (*director.Director, error) {
	mu.Lock()
	d := sharedDirector
	mu.Unlock()
	if d != nil {
		return d, nil
	}

	d, err := NewDirector(DirectorOptions{})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if sharedDirector == nil {
		sharedDirector = d
	}
	return sharedDirector, nil
}

// SetDirector replaces the process-wide Director. Mostly for tests.
func SetDirector(d *director.Director) {
	mu.Lock()
	defer mu.Unlock()
	sharedDirector = d
}
