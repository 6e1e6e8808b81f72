package director

import (
	"context"
	"errors"

	"github.com/castanaut/castanaut/backends"
	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
	"golang.org/x/sync/errgroup"
)

// Perform runs a labelled block. Returning Skip() from the block ends it
// early without failing the screenplay; any other error is returned.
func (d *Director) Perform(ctx context.Context, label string, block func(ctx context.Context) error) error {
	utils.Verbose("perform: %s", label)
	err := block(ctx)
	if errors.Is(err, types.ErrSkip) {
		utils.Verbose("skipped the rest of %s", label)
		return nil
	}
	return err
}

// Skip returns the signal that ends the enclosing Perform block.
func (d *Director) Skip() error {
	return types.ErrSkip
}

// WhileSaying speaks text while block runs, and returns once both are done.
// A narration failure is logged; block's error is returned.
func (d *Director) WhileSaying(ctx context.Context, text string, block func(ctx context.Context) error) error {
	if block == nil {
		return d.Say(ctx, text)
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := d.Say(ctx, text); err != nil {
			utils.Warn("narration failed: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		return block(ctx)
	})
	return g.Wait()
}

// Invoke runs a direction by name: plugin directions first, then the
// backend's extra directions. Anything else is NotSupported.
func (d *Director) Invoke(ctx context.Context, name string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.Lock()
	fn, ok := d.directions[name]
	d.mu.Unlock()
	if ok {
		return fn(ctx, args...)
	}

	b, err := d.Backend()
	if err != nil {
		return "", err
	}
	if ext, ok := b.(backends.Extension); ok {
		if fn, ok := ext.Direction(name); ok {
			return fn(ctx, args...)
		}
	}
	return "", types.NotSupported(name, b.Label())
}

// Supports reports whether Invoke can run name.
func (d *Director) Supports(name string) bool {
	d.mu.Lock()
	_, ok := d.directions[name]
	d.mu.Unlock()
	if ok {
		return true
	}

	b, err := d.Backend()
	if err != nil {
		return false
	}
	if ext, ok := b.(backends.Extension); ok {
		_, ok = ext.Direction(name)
		return ok
	}
	return false
}
