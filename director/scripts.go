package director

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrScriptNotFound is returned by LoadScript when no location has the file.
var ErrScriptNotFound = errors.New("script not found")

//go:embed scripts/*.js
var bundledScripts embed.FS

// LoadScript returns the contents of a script resource such as "coords.js".
// It looks in the screenplay's scripts directory, then the resource
// directory, then the bundled scripts. Results are cached.
func (d *Director) LoadScript(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid script name %q", name)
	}

	if src, ok := d.scriptCache.Get(name); ok {
		return src, nil
	}

	src, err := d.readScript(name)
	if err != nil {
		return "", err
	}
	d.scriptCache.Add(name, src)
	return src, nil
}

func (d *Director) readScript(name string) (string, error) {
	var dirs []string
	if d.screenplayPath != "" {
		dirs = append(dirs, filepath.Join(filepath.Dir(d.screenplayPath), "scripts"))
	}
	if d.resourceDir != "" {
		dirs = append(dirs, d.resourceDir)
	}

	for _, dir := range dirs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read script %s: %w", name, err)
		}
	}

	data, err := bundledScripts.ReadFile("scripts/" + name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}
	return string(data), nil
}
