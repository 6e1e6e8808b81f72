package plugins

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/types"
)

var (
	ErrElementNotFound  = errors.New("no element matches the selector")
	ErrElementOffScreen = errors.New("element cannot be scrolled on screen")
)

const (
	defaultEdgeOffset  = 3
	defaultWaitTimeout = 10 * time.Second
	waitPollInterval   = 300 * time.Millisecond
)

// ElementOptions select and locate an element in the front Safari tab.
type ElementOptions struct {
	// Index picks the n-th element matching the selector.
	Index int
	// Area is where in the element to point: one of left, center, right
	// and one of top, middle, bottom. Defaults to center, middle.
	Area []string
	// EdgeOffset is the distance kept from the edge for non-centered areas.
	EdgeOffset int
	// Timeout waits for the element to appear when positive.
	Timeout time.Duration
}

// Safari drives Safari: opening URLs and tabs, and locating page elements
// on screen.
func Safari() *director.Plugin {
	return &director.Plugin{
		Name: "safari",
		Apps: map[string]director.AppHooks{
			"Safari": {EnsureWindow: "if (count(windows)) < 1 then make new document"},
		},
		Directions: func(d *director.Director) map[string]director.DirectionFunc {
			return map[string]director.DirectionFunc{
				"url": func(ctx context.Context, args ...string) (string, error) {
					if err := needArgs("url", args, 1); err != nil {
						return "", err
					}
					return "", URL(ctx, d, args[0])
				},
				"new_tab": func(ctx context.Context, args ...string) (string, error) {
					u := ""
					if len(args) > 0 {
						u = args[0]
					}
					return "", NewTab(ctx, d, u)
				},
				"to_element": func(ctx context.Context, args ...string) (string, error) {
					if err := needArgs("to_element", args, 1); err != nil {
						return "", err
					}
					to, err := ToElement(ctx, d, args[0], ElementOptions{Area: args[1:]})
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d %d", *to.Left, *to.Top), nil
				},
				"wait_for_element": func(ctx context.Context, args ...string) (string, error) {
					if err := needArgs("wait_for_element", args, 1); err != nil {
						return "", err
					}
					secs, err := intArg(args, 1, int(defaultWaitTimeout/time.Second))
					if err != nil {
						return "", err
					}
					c, err := WaitForElement(ctx, d, args[0], ElementOptions{Timeout: time.Duration(secs) * time.Second})
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d %d %d %d", c.Left, c.Top, c.Width, c.Height), nil
				},
			}
		},
	}
}

// URL opens u in the front Safari tab.
func URL(ctx context.Context, d *director.Director, u string) error {
	_, err := executeJavaScript(ctx, d, "location.href = '"+escapeJS(u)+"';")
	return err
}

// NewTab opens a tab in the front Safari window, showing u when given.
func NewTab(ctx context.Context, d *director.Director, u string) error {
	src := `
tell front window of application "Safari"
  set the current tab to (make new tab)
end tell`
	if u != "" {
		src = fmt.Sprintf(`
tell front window of application "Safari"
  set newTab to make new tab
  set the URL of newTab to "%s"
  set the current tab to newTab
end tell`, automation.EscapeDoubleQuotes(u))
	}

	_, err := d.ExecuteScript(ctx, src)
	return err
}

// ToElement returns an option bag pointing at the element matching
// selector, for use with Cursor.
func ToElement(ctx context.Context, d *director.Director, selector string, opts ElementOptions) (types.Options, error) {
	var (
		c   types.Coordinate
		err error
	)
	if opts.Timeout > 0 {
		c, err = WaitForElement(ctx, d, selector, opts)
	} else {
		c, err = elementCoordinates(ctx, d, selector, opts.Index)
	}
	if err != nil {
		return types.Options{}, err
	}

	edge := opts.EdgeOffset
	if edge == 0 {
		edge = defaultEdgeOffset
	}

	xAxis, yAxis := "center", "middle"
	for _, a := range opts.Area {
		switch a = strings.ToLower(a); a {
		case "left", "center", "right":
			xAxis = a
		case "top", "middle", "bottom":
			yAxis = a
		}
	}

	var x, y int
	switch xAxis {
	case "left":
		x = c.Left + edge
	case "right":
		x = c.Left + c.Width - edge
	default:
		x = c.Left + c.Width/2
	}
	switch yAxis {
	case "top":
		y = c.Top + edge
	case "bottom":
		y = c.Top + c.Height - edge
	default:
		y = c.Top + c.Height/2
	}

	return types.To(x, y), nil
}

// WaitForElement polls until the element matching selector is on screen or
// the timeout (10s by default) passes.
func WaitForElement(ctx context.Context, d *director.Director, selector string, opts ElementOptions) (types.Coordinate, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		c, err := elementCoordinates(ctx, d, selector, opts.Index)
		if !errors.Is(err, ErrElementNotFound) || time.Now().After(deadline) {
			return c, err
		}
		if err := d.Pause(ctx, waitPollInterval); err != nil {
			return types.Coordinate{}, err
		}
	}
}

func elementCoordinates(ctx context.Context, d *director.Director, selector string, index int) (types.Coordinate, error) {
	dom, err := d.LoadScript("dom.js")
	if err != nil {
		return types.Coordinate{}, err
	}
	coords, err := d.LoadScript("coords.js")
	if err != nil {
		return types.Coordinate{}, err
	}

	out, err := executeJavaScript(ctx, d, fmt.Sprintf("%s\n%s\nreturn Castanaut.Coords.forElement('%s', %d);",
		dom, coords, escapeJS(selector), index))
	if err != nil {
		return types.Coordinate{}, err
	}
	return parseElementCoords(out)
}

func parseElementCoords(out string) (types.Coordinate, error) {
	fields := strings.Fields(out)
	if len(fields) != 4 {
		return types.Coordinate{}, ErrElementNotFound
	}

	vals := make([]int, 4)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return types.Coordinate{}, ErrElementNotFound
		}
		if v < 0 {
			return types.Coordinate{}, ErrElementOffScreen
		}
		vals[i] = v
	}
	return types.Coordinate{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func executeJavaScript(ctx context.Context, d *director.Director, js string) (string, error) {
	return d.ExecuteScript(ctx, fmt.Sprintf(`
tell application "Safari"
  set the_result to (do JavaScript "(function() {
%s
})();" in front document)
  return the_result
end tell`, automation.EscapeDoubleQuotes(js)))
}

// escapeJS escapes s for a single-quoted JavaScript string.
func escapeJS(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`).Replace(s)
}
