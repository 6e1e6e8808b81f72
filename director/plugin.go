package director

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/castanaut/castanaut/utils"
)

// ErrPluginNotFound is returned by Plugin when no plugin has the name.
var ErrPluginNotFound = errors.New("plugin not found")

// AppHooks replace parts of the launch sequence for one application.
type AppHooks struct {
	// EnsureWindow runs inside the app's tell block before positioning,
	// e.g. "if (count(windows)) < 1 then make new document".
	EnsureWindow string
	// Positioning replaces the default window positioning fragment.
	Positioning string
}

// Plugin is a named set of directions installed onto a Director.
type Plugin struct {
	Name string
	// Directions builds the plugin's directions bound to d.
	Directions func(d *Director) map[string]DirectionFunc
	// Apps maps application names to launch hooks.
	Apps map[string]AppHooks
}

// Catalog is the set of built-in plugins, by lower-case name.
type Catalog map[string]*Plugin

// PluginLoader loads a plugin from a source file.
type PluginLoader interface {
	LoadPlugin(path string) (*Plugin, error)
}

// PluginLoaderFunc adapts a function to PluginLoader.
type PluginLoaderFunc func(path string) (*Plugin, error)

func (f PluginLoaderFunc) LoadPlugin(path string) (*Plugin, error) {
	return f(path)
}

// Plugin installs the named plugin onto this Director. A plugin in the
// screenplay's plugins directory takes precedence over a built-in one.
// Loading the same plugin twice is a no-op.
func (d *Director) Plugin(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name = strings.ToLower(strings.TrimSpace(name))
	d.mu.Lock()
	done := d.loaded[name]
	d.mu.Unlock()
	if done {
		return nil
	}

	p, err := d.findPlugin(name)
	if err != nil {
		return err
	}
	d.Install(p)

	d.mu.Lock()
	d.loaded[name] = true
	d.mu.Unlock()
	return nil
}

func (d *Director) findPlugin(name string) (*Plugin, error) {
	if d.screenplayPath != "" && d.loader != nil {
		path := filepath.Join(filepath.Dir(d.screenplayPath), "plugins", name+".go")
		if _, err := os.Stat(path); err == nil {
			utils.Verbose("loading plugin %s from %s", name, path)
			p, err := d.loader.LoadPlugin(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load plugin %s: %w", path, err)
			}
			return p, nil
		}
	}

	if p, ok := d.catalog[name]; ok {
		utils.Verbose("loading built-in plugin %s", name)
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// Install merges p's directions and app hooks into this Director. Later
// installs override earlier ones with the same names.
func (d *Director) Install(p *Plugin) {
	var dirs map[string]DirectionFunc
	if p.Directions != nil {
		dirs = p.Directions(d)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for name, fn := range dirs {
		d.directions[name] = fn
	}
	for app, hooks := range p.Apps {
		d.apps[app] = hooks
	}
}
