// Package screenplay loads screenplays. A screenplay is either a YAML list
// of stage directions or a Go source file interpreted with yaegi; both are
// compiled when loaded, so mistakes surface before the movie starts.
package screenplay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/types"
)

// Screenplay is a unit of work performed against a Director.
type Screenplay interface {
	Name() string
	Perform(ctx context.Context, d *director.Director) error
}

// Func adapts a Go function to Screenplay.
type Func struct {
	Title string
	Fn    func(ctx context.Context, d *director.Director) error
}

// New returns a Screenplay running fn.
func New(name string, fn func(ctx context.Context, d *director.Director) error) *Func {
	return &Func{Title: name, Fn: fn}
}

func (f *Func) Name() string {
	return f.Title
}

func (f *Func) Perform(ctx context.Context, d *director.Director) error {
	return escapedSkip(f.Fn(ctx, d))
}

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported screenplay format")

// Load reads and compiles the screenplay at path. .yaml and .yml files are
// direction lists; .go files are Go screenplays.
func Load(path string) (Screenplay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrScreenplayNotFound, path)
		}
		return nil, fmt.Errorf("failed to read screenplay %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(name, data)
	case ".go":
		return CompileGo(name, string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// escapedSkip turns a skip signal that reached the top of a screenplay into
// an ordinary error.
func escapedSkip(err error) error {
	if errors.Is(err, types.ErrSkip) {
		return errors.New("skip used outside of perform")
	}
	return err
}
