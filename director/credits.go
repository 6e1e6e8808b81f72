package director

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/castanaut/castanaut/utils"
)

// Credits is the list of end-of-movie actions. Actions run in the order
// they were added, and each action runs at most once.
type Credits struct {
	mu      sync.Mutex
	credits []credit
}

type credit struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCredits creates an empty credits list
func NewCredits() *Credits {
	return &Credits{}
}

// Add appends an action to run at the end of the movie.
func (c *Credits) Add(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credits = append(c.credits, credit{name: name, fn: fn})
	utils.Verbose("Registered end-of-movie action: %s", name)
}

// Roll runs and clears every registered action. A failing action does not
// stop the ones after it; failures are joined into the returned error.
// Actions added while rolling are kept for the next Roll.
func (c *Credits) Roll(ctx context.Context) error {
	c.mu.Lock()
	pending := c.credits
	c.credits = nil
	c.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	utils.Verbose("Rolling %d end-of-movie action(s)", len(pending))
	var errs []error
	for _, cr := range pending {
		utils.Verbose("Running end-of-movie action: %s", cr.name)
		if err := runCredit(ctx, cr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cr.name, err))
			utils.Warn("end-of-movie action %s failed: %v", cr.name, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d end-of-movie action(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func runCredit(ctx context.Context, cr credit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cr.fn(ctx)
}

// Count returns the number of pending actions.
func (c *Credits) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.credits)
}

// Credits returns the Director's end-of-movie list.
func (d *Director) Credits() *Credits {
	return d.credits
}

// AtEndOfMovie registers fn to run when the movie ends, whether it
// finishes, fails or is aborted. Register it right after the action it
// reverts: an abort before registration leaves it out.
func (d *Director) AtEndOfMovie(fn func(ctx context.Context) error) {
	d.credits.Add(fmt.Sprintf("credit #%d", d.credits.Count()+1), fn)
}

// RollCredits runs the end-of-movie actions.
func (d *Director) RollCredits(ctx context.Context) error {
	return d.credits.Roll(ctx)
}
