package types

import "fmt"

// Point is an absolute screen position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Coordinate is an absolute screen rectangle. Width and Height are zero for
// a plain point.
type Coordinate struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// HasSize reports whether the coordinate describes a region rather than a point.
func (c Coordinate) HasSize() bool {
	return c.Width > 0 || c.Height > 0
}

func (c Coordinate) Point() Point {
	return Point{X: c.Left, Y: c.Top}
}

// Options is a partial option bag. Nil fields are unset, so bags can be
// folded with Combine.
type Options struct {
	Left    *int `json:"left,omitempty" yaml:"left,omitempty"`
	Top     *int `json:"top,omitempty" yaml:"top,omitempty"`
	Width   *int `json:"width,omitempty" yaml:"width,omitempty"`
	Height  *int `json:"height,omitempty" yaml:"height,omitempty"`
	OffsetX *int `json:"dx,omitempty" yaml:"dx,omitempty"`
	OffsetY *int `json:"dy,omitempty" yaml:"dy,omitempty"`

	// Speed is the typing rate for type; 0 types as fast as possible.
	Speed *int `json:"speed,omitempty" yaml:"speed,omitempty"`
	// AppleScript forces the AppleScript typing technique.
	AppleScript *bool `json:"applescript,omitempty" yaml:"applescript,omitempty"`
}

// Combine folds the given bags left to right. A field set in a later bag
// overrides the same field from an earlier one.
func Combine(bags ...Options) Options {
	var out Options
	for _, b := range bags {
		out.Left = pick(out.Left, b.Left)
		out.Top = pick(out.Top, b.Top)
		out.Width = pick(out.Width, b.Width)
		out.Height = pick(out.Height, b.Height)
		out.OffsetX = pick(out.OffsetX, b.OffsetX)
		out.OffsetY = pick(out.OffsetY, b.OffsetY)
		out.Speed = pick(out.Speed, b.Speed)
		if b.AppleScript != nil {
			out.AppleScript = b.AppleScript
		}
	}
	return out
}

func pick(cur, next *int) *int {
	if next != nil {
		v := *next
		return &v
	}
	return cur
}

// Target returns the coordinate described by the bag with its offset already
// applied. ok is false when left or top is missing.
func (o Options) Target() (c Coordinate, ok bool) {
	if o.Left == nil || o.Top == nil {
		return Coordinate{}, false
	}

	c = Coordinate{Left: *o.Left, Top: *o.Top}
	if o.Width != nil {
		c.Width = *o.Width
	}
	if o.Height != nil {
		c.Height = *o.Height
	}
	if o.OffsetX != nil {
		c.Left += *o.OffsetX
	}
	if o.OffsetY != nil {
		c.Top += *o.OffsetY
	}
	return c, true
}

// TypeSpeed returns the configured typing speed, defaulting to 50.
func (o Options) TypeSpeed() int {
	if o.Speed == nil {
		return DefaultTypeSpeed
	}
	return *o.Speed
}

// DefaultTypeSpeed is the typing rate used when none is given.
const DefaultTypeSpeed = 50

// To returns a bag targeting the given point, or region when width and
// height follow.
func To(left, top int, size ...int) Options {
	o := Options{Left: Int(left), Top: Int(top)}
	if len(size) > 0 {
		o.Width = Int(size[0])
	}
	if len(size) > 1 {
		o.Height = Int(size[1])
	}
	return o
}

// At is an alias of To, for use with launch.
func At(left, top int, size ...int) Options {
	return To(left, top, size...)
}

// Offset returns a bag that shifts a target by dx, dy when combined with it.
func Offset(dx, dy int) Options {
	return Options{OffsetX: Int(dx), OffsetY: Int(dy)}
}

// Speed returns a bag setting the typing speed.
func Speed(cps int) Options {
	return Options{Speed: Int(cps)}
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
