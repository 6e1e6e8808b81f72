package screenplay

import (
	"context"
	"fmt"
	"os"

	"github.com/castanaut/castanaut/director"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Program is a compiled Go screenplay. The source is a main package that
// defines
//
//	func Screenplay(ctx context.Context, d *director.Director) error
//
// and no main function. It may import the standard library and the
// director, types and plugins packages.
type Program struct {
	name string
	fn   func(ctx context.Context, d *director.Director) error
}

// CompileGo interprets src and extracts its Screenplay function.
func CompileGo(name, src string) (*Program, error) {
	i, err := newInterpreter()
	if err != nil {
		return nil, err
	}

	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("failed to compile screenplay %s: %w", name, err)
	}

	v, err := i.Eval("main.Screenplay")
	if err != nil {
		return nil, fmt.Errorf("screenplay %s does not define Screenplay: %w", name, err)
	}

	fn, ok := v.Interface().(func(context.Context, *director.Director) error)
	if !ok {
		return nil, fmt.Errorf("screenplay %s: Screenplay has type %s, want func(context.Context, *director.Director) error", name, v.Type())
	}
	return &Program{name: name, fn: fn}, nil
}

func (p *Program) Name() string {
	return p.name
}

func (p *Program) Perform(ctx context.Context, d *director.Director) error {
	return escapedSkip(p.fn(ctx, d))
}

// LoadPlugin interprets a plugin source file. The file is a main package
// defining
//
//	func Directions(d *director.Director) map[string]director.DirectionFunc
//
// and optionally
//
//	func Apps() map[string]director.AppHooks
func LoadPlugin(path string) (*director.Plugin, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	i, err := newInterpreter()
	if err != nil {
		return nil, err
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("failed to compile plugin: %w", err)
	}

	p := &director.Plugin{Name: path}

	v, err := i.Eval("main.Directions")
	if err != nil {
		return nil, fmt.Errorf("plugin does not define Directions: %w", err)
	}
	dirs, ok := v.Interface().(func(*director.Director) map[string]director.DirectionFunc)
	if !ok {
		return nil, fmt.Errorf("plugin Directions has type %s, want func(*director.Director) map[string]director.DirectionFunc", v.Type())
	}
	p.Directions = dirs

	if v, err := i.Eval("main.Apps"); err == nil {
		apps, ok := v.Interface().(func() map[string]director.AppHooks)
		if !ok {
			return nil, fmt.Errorf("plugin Apps has type %s, want func() map[string]director.AppHooks", v.Type())
		}
		p.Apps = apps()
	}
	return p, nil
}

// PluginLoader loads screenplay-relative Go plugins.
var PluginLoader director.PluginLoader = director.PluginLoaderFunc(LoadPlugin)

func newInterpreter() (*interp.Interpreter, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if err := i.Use(Symbols); err != nil {
		return nil, fmt.Errorf("failed to load castanaut symbols: %w", err)
	}
	return i, nil
}
