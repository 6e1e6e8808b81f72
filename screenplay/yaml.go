package screenplay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
	"gopkg.in/yaml.v3"
)

// Script is a compiled YAML screenplay.
//
//	name: demo
//	plugins: [safari]
//	steps:
//	  - launch: {app: Safari, at: [10, 10, 800, 600]}
//	  - url: http://example.com
//	  - cursor: [100, 200]
//	  - click: left
//	  - type: {text: "hello", speed: 20}
//	  - hit: [s, command]
//	  - perform:
//	      label: optional part
//	      steps:
//	        - skip:
type Script struct {
	name    string
	plugins []string
	steps   []step
}

type runFunc func(ctx context.Context, d *director.Director) error

// step is one compiled direction with its source position.
type step struct {
	direction string
	line      int
	run       runFunc
}

type document struct {
	Name    string      `yaml:"name"`
	Plugins []string    `yaml:"plugins"`
	Steps   []yaml.Node `yaml:"steps"`
}

// ParseYAML compiles a YAML screenplay. The document is either a mapping
// with name, plugins and steps, or a bare list of steps.
func ParseYAML(name string, data []byte) (*Script, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse screenplay %s: %w", name, err)
	}

	s := &Script{name: name}
	if root.Kind == 0 || len(root.Content) == 0 {
		return s, nil
	}

	body := root.Content[0]
	var nodes []*yaml.Node
	switch body.Kind {
	case yaml.SequenceNode:
		nodes = body.Content
	case yaml.MappingNode:
		var doc document
		if err := body.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse screenplay %s: %w", name, err)
		}
		if doc.Name != "" {
			s.name = doc.Name
		}
		s.plugins = doc.Plugins
		nodes = nodePointers(doc.Steps)
	default:
		return nil, fmt.Errorf("line %d: a screenplay must be a mapping or a list of steps", body.Line)
	}

	var c compiler
	steps, err := c.compileSteps(nodes)
	if err != nil {
		return nil, fmt.Errorf("screenplay %s: %w", name, err)
	}
	s.steps = steps
	return s, nil
}

func (s *Script) Name() string {
	return s.name
}

// Len returns the number of top-level steps.
func (s *Script) Len() int {
	return len(s.steps)
}

func (s *Script) Perform(ctx context.Context, d *director.Director) error {
	for _, p := range s.plugins {
		if err := d.Plugin(ctx, p); err != nil {
			return err
		}
	}
	return escapedSkip(runSteps(ctx, d, s.steps))
}

func runSteps(ctx context.Context, d *director.Director, steps []step) error {
	for _, st := range steps {
		if err := st.run(ctx, d); err != nil {
			if errors.Is(err, types.ErrSkip) {
				return err
			}
			return fmt.Errorf("line %d: %s: %w", st.line, st.direction, err)
		}
	}
	return nil
}

type handler func(c *compiler, args *yaml.Node) (runFunc, error)

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"launch":       compileLaunch,
		"cursor":       compileCursor,
		"move":         compileCursor,
		"move_by":      compileMoveBy,
		"drag":         compileDrag,
		"click":        compileButton((*director.Director).Click),
		"doubleclick":  compileButton((*director.Director).DoubleClick),
		"tripleclick":  compileButton((*director.Director).TripleClick),
		"mousedown":    compileButton((*director.Director).MouseDown),
		"mouseup":      compileButton((*director.Director).MouseUp),
		"type":         compileType,
		"hit":          compileKey((*director.Director).Hit),
		"keystroke":    compileKey((*director.Director).Keystroke),
		"menu":         compileMenu,
		"say":          compileSay,
		"pause":        compilePause,
		"while_saying": compileWhileSaying,
		"perform":      compilePerform,
		"skip":         compileSkip,
		"at_end":       compileAtEnd,
		"run":          compileRun,
		"applescript":  compileAppleScript,
		"plugin":       compilePlugin,
	}
}

type compiler struct {
	performDepth int
}

func (c *compiler) compileSteps(nodes []*yaml.Node) ([]step, error) {
	steps := make([]step, 0, len(nodes))
	for _, n := range nodes {
		st, err := c.compileStep(n)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func (c *compiler) compileStep(n *yaml.Node) (step, error) {
	var key string
	var args *yaml.Node

	switch {
	case n.Kind == yaml.ScalarNode:
		key = n.Value
		args = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Line: n.Line}
	case n.Kind == yaml.MappingNode && len(n.Content) == 2:
		key = n.Content[0].Value
		args = n.Content[1]
	default:
		return step{}, fmt.Errorf("line %d: a step must name exactly one direction", n.Line)
	}

	h, ok := handlers[key]
	if !ok {
		h = compileInvoke(key)
	}

	run, err := h(c, args)
	if err != nil {
		return step{}, fmt.Errorf("line %d: %s: %w", n.Line, key, err)
	}
	return step{direction: key, line: n.Line, run: run}, nil
}

func compileLaunch(c *compiler, n *yaml.Node) (runFunc, error) {
	if n.Kind == yaml.ScalarNode {
		app := n.Value
		return func(ctx context.Context, d *director.Director) error {
			return d.Launch(ctx, app)
		}, nil
	}

	var args struct {
		App           string `yaml:"app"`
		At            []int  `yaml:"at"`
		types.Options `yaml:",inline"`
	}
	if err := n.Decode(&args); err != nil {
		return nil, err
	}
	if args.App == "" {
		return nil, errors.New("missing app")
	}

	opts := []types.Options{args.Options}
	if len(args.At) > 0 {
		at, err := coordinateList(args.At)
		if err != nil {
			return nil, err
		}
		opts = append(opts, at)
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.Launch(ctx, args.App, opts...)
	}, nil
}

func compileCursor(c *compiler, n *yaml.Node) (runFunc, error) {
	opts, err := targetOptions(n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.Cursor(ctx, opts)
	}, nil
}

func compileMoveBy(c *compiler, n *yaml.Node) (runFunc, error) {
	var delta []int
	if err := n.Decode(&delta); err != nil || len(delta) != 2 {
		return nil, errors.New("expected [dx, dy]")
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.MoveBy(ctx, delta[0], delta[1])
	}, nil
}

func compileDrag(c *compiler, n *yaml.Node) (runFunc, error) {
	opts, err := targetOptions(n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.Drag(ctx, opts)
	}, nil
}

func compileButton(direction func(*director.Director, context.Context, types.Button) error) handler {
	return func(c *compiler, n *yaml.Node) (runFunc, error) {
		if n.Kind != yaml.ScalarNode {
			return nil, errors.New("expected a button name")
		}
		btn := types.Button(n.Value)
		if _, err := btn.Code(); err != nil {
			return nil, err
		}
		return func(ctx context.Context, d *director.Director) error {
			return direction(d, ctx, btn)
		}, nil
	}
}

func compileType(c *compiler, n *yaml.Node) (runFunc, error) {
	var args struct {
		Text          string `yaml:"text"`
		types.Options `yaml:",inline"`
	}
	if n.Kind == yaml.ScalarNode {
		args.Text = n.Value
	} else if err := n.Decode(&args); err != nil {
		return nil, err
	}

	return func(ctx context.Context, d *director.Director) error {
		return d.Type(ctx, args.Text, args.Options)
	}, nil
}

func compileKey(direction func(*director.Director, context.Context, string, ...types.Modifier) error) handler {
	return func(c *compiler, n *yaml.Node) (runFunc, error) {
		list, err := stringList(n)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 || list[0] == "" {
			return nil, errors.New("missing key")
		}
		mods, err := types.ParseModifiers(list[1:])
		if err != nil {
			return nil, err
		}
		key := list[0]
		return func(ctx context.Context, d *director.Director) error {
			return direction(d, ctx, key, mods...)
		}, nil
	}
}

func compileMenu(c *compiler, n *yaml.Node) (runFunc, error) {
	items, err := stringList(n)
	if err != nil {
		return nil, err
	}
	if len(items) < 3 {
		return nil, errors.New("expected [application, menu, item...]")
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.ClickMenuItem(ctx, items...)
	}, nil
}

func compileSay(c *compiler, n *yaml.Node) (runFunc, error) {
	text, err := scalar(n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.Say(ctx, text)
	}, nil
}

func compilePause(c *compiler, n *yaml.Node) (runFunc, error) {
	dur, err := duration(n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.Pause(ctx, dur)
	}, nil
}

func compileWhileSaying(c *compiler, n *yaml.Node) (runFunc, error) {
	var args struct {
		Text  string      `yaml:"text"`
		Steps []yaml.Node `yaml:"steps"`
	}
	if err := n.Decode(&args); err != nil {
		return nil, err
	}

	steps, err := c.compileSteps(nodePointers(args.Steps))
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.WhileSaying(ctx, args.Text, func(ctx context.Context) error {
			return runSteps(ctx, d, steps)
		})
	}, nil
}

func compilePerform(c *compiler, n *yaml.Node) (runFunc, error) {
	var args struct {
		Label string      `yaml:"label"`
		Steps []yaml.Node `yaml:"steps"`
	}
	if err := n.Decode(&args); err != nil {
		return nil, err
	}

	c.performDepth++
	steps, err := c.compileSteps(nodePointers(args.Steps))
	c.performDepth--
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, d *director.Director) error {
		return d.Perform(ctx, args.Label, func(ctx context.Context) error {
			return runSteps(ctx, d, steps)
		})
	}, nil
}

func compileSkip(c *compiler, n *yaml.Node) (runFunc, error) {
	if c.performDepth == 0 {
		return nil, errors.New("skip is only allowed inside perform")
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.Skip()
	}, nil
}

func compileAtEnd(c *compiler, n *yaml.Node) (runFunc, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errors.New("expected a list of steps")
	}

	// credits run after the movie, outside any perform block
	inner := compiler{}
	steps, err := inner.compileSteps(n.Content)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		d.AtEndOfMovie(func(ctx context.Context) error {
			return runSteps(ctx, d, steps)
		})
		return nil
	}, nil
}

func compileRun(c *compiler, n *yaml.Node) (runFunc, error) {
	command, err := scalar(n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		out, err := d.Run(ctx, command)
		if out != "" {
			utils.Verbose("run output: %s", out)
		}
		return err
	}, nil
}

func compileAppleScript(c *compiler, n *yaml.Node) (runFunc, error) {
	source, err := scalar(n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		_, err := d.ExecuteScript(ctx, source)
		return err
	}, nil
}

func compilePlugin(c *compiler, n *yaml.Node) (runFunc, error) {
	name, err := scalar(n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, d *director.Director) error {
		return d.Plugin(ctx, name)
	}, nil
}

// compileInvoke handles any direction not built in: plugin directions and
// backend extensions, resolved when the step runs.
func compileInvoke(name string) handler {
	return func(c *compiler, n *yaml.Node) (runFunc, error) {
		args, err := stringList(n)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, d *director.Director) error {
			out, err := d.Invoke(ctx, name, args...)
			if out != "" {
				utils.Verbose("%s: %s", name, out)
			}
			return err
		}, nil
	}
}

func nodePointers(nodes []yaml.Node) []*yaml.Node {
	out := make([]*yaml.Node, len(nodes))
	for i := range nodes {
		out[i] = &nodes[i]
	}
	return out
}

func scalar(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return "", errors.New("expected a single value")
	}
	return n.Value, nil
}

// stringList accepts a single value or a list of values. A missing value is
// an empty list.
func stringList(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: expected a plain value", item.Line)
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, errors.New("expected a value or a list of values")
	}
}

// targetOptions accepts [left, top(, width, height)] or a mapping of
// option fields such as {left: 10, top: 20, dx: 5}.
func targetOptions(n *yaml.Node) (types.Options, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		var list []int
		if err := n.Decode(&list); err != nil {
			return types.Options{}, err
		}
		return coordinateList(list)
	case yaml.MappingNode:
		var opts types.Options
		if err := n.Decode(&opts); err != nil {
			return types.Options{}, err
		}
		if _, ok := opts.Target(); !ok {
			return types.Options{}, errors.New("missing left or top")
		}
		return opts, nil
	default:
		return types.Options{}, errors.New("expected [left, top] or a mapping")
	}
}

func coordinateList(list []int) (types.Options, error) {
	if len(list) != 2 && len(list) != 4 {
		return types.Options{}, fmt.Errorf("expected 2 or 4 numbers, got %d", len(list))
	}
	return types.To(list[0], list[1], list[2:]...), nil
}

// duration accepts seconds as a number or a Go duration such as "250ms".
func duration(n *yaml.Node) (time.Duration, error) {
	v, err := scalar(n)
	if err != nil {
		return 0, err
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}
