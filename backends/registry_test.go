package backends

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticProbe(ok bool) Probe {
	return ProbeFunc(func() (bool, error) { return ok, nil })
}

func recorderFactory(label string) (Factory, *labelled) {
	b := &labelled{Recorder: NewRecorder(), label: label}
	return func(host Host) (Backend, error) { return b, nil }, b
}

type labelled struct {
	*Recorder
	label string
}

func (l *labelled) Label() string { return l.label }

func TestRegistry_FirstMatchWins(t *testing.T) {
	reg := NewRegistry()

	f1, _ := recorderFactory("first")
	f2, _ := recorderFactory("second")
	f3, _ := recorderFactory("always")
	reg.Register("one", "first", staticProbe(false), f1)
	reg.Register("two", "second", staticProbe(true), f2)
	reg.Register("three", "always", Always, f3)

	b, err := reg.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "second", b.Label())
}

func TestRegistry_ReRegisterKeepsPosition(t *testing.T) {
	reg := NewRegistry()

	f1, _ := recorderFactory("a")
	f2, _ := recorderFactory("b")
	f3, _ := recorderFactory("a2")
	reg.Register("a", "a", staticProbe(false), f1)
	reg.Register("b", "b", Always, f2)
	reg.Register("a", "a2", Always, f3)

	entries := reg.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "a2", entries[0].Label)

	b, err := reg.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "a2", b.Label())
}

func TestRegistry_NoMatch(t *testing.T) {
	reg := NewRegistry()
	f, _ := recorderFactory("x")
	reg.Register("x", "Mac OS X 10.4", staticProbe(false), f)

	_, err := reg.Resolve(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoCompatibleBackend)
	assert.Contains(t, err.Error(), "Mac OS X 10.4")
}

func TestRegistry_EmptyRegistry(t *testing.T) {
	_, err := NewRegistry().Resolve(nil)
	assert.ErrorIs(t, err, types.ErrNoCompatibleBackend)
}

func TestRegistry_FailingProbesAreSkipped(t *testing.T) {
	reg := NewRegistry()

	f1, _ := recorderFactory("erroring")
	f2, _ := recorderFactory("panicking")
	f3, _ := recorderFactory("fine")
	reg.Register("err", "erroring", ProbeFunc(func() (bool, error) {
		return true, errors.New("boom")
	}), f1)
	reg.Register("panic", "panicking", ProbeFunc(func() (bool, error) {
		panic("probe exploded")
	}), f2)
	reg.Register("nil", "no probe", nil, f3)
	reg.Register("fine", "fine", Always, f3)

	b, err := reg.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "fine", b.Label())
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("no helper")
	reg.Register("x", "broken", Always, func(host Host) (Backend, error) {
		return nil, boom
	})

	_, err := reg.Resolve(nil)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_Reset(t *testing.T) {
	reg := NewRegistry()
	f, _ := recorderFactory("x")
	reg.Register("x", "x", Always, f)
	reg.Reset()

	assert.Empty(t, reg.Entries())
	_, err := reg.Resolve(nil)
	assert.ErrorIs(t, err, types.ErrNoCompatibleBackend)
}

func fixedVersion(v string) VersionSource {
	return VersionFunc(func() (string, error) { return v, nil })
}

func TestMacOSProbe(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		version    string
		constraint string
		want       bool
	}{
		{"modern on leopard", "darwin", "10.5.8", ">= 10.5", true},
		{"modern on sonoma", "darwin", "14.5", ">= 10.5", true},
		{"modern on tiger", "darwin", "10.4.11", ">= 10.5", false},
		{"legacy on tiger", "darwin", "10.4.11", "~10.4", true},
		{"legacy on leopard", "darwin", "10.5.0", "~10.4", false},
		{"linux never matches", "linux", "10.5.0", ">= 10.5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MacOSProbe{Constraint: tt.constraint, Version: fixedVersion(tt.version), GOOS: tt.goos}
			got, err := p.Supported()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMacOSProbe_BadVersion(t *testing.T) {
	p := MacOSProbe{Constraint: ">= 10.5", Version: fixedVersion("not a version"), GOOS: "darwin"}
	_, err := p.Supported()
	assert.Error(t, err)
}

func TestSystemVersion_ReadsPlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SystemVersion.plist")
	require.NoError(t, os.WriteFile(path, []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>ProductName</key>
	<string>Mac OS X</string>
	<key>ProductVersion</key>
	<string>10.5.8</string>
</dict>
</plist>
`), 0644))

	v, err := (&SystemVersion{PlistPath: path}).ProductVersion()
	require.NoError(t, err)
	assert.Equal(t, "10.5.8", v)
}

func TestSystemVersion_NoSource(t *testing.T) {
	_, err := (&SystemVersion{PlistPath: filepath.Join(t.TempDir(), "missing.plist")}).ProductVersion()
	assert.Error(t, err)
}

func TestRegisterDefaults(t *testing.T) {
	cfg := config.Default()

	reg := NewRegistry()
	RegisterDefaults(reg, cfg)
	entries := reg.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, LabelMacOSX, entries[0].Label)
	assert.Equal(t, LabelMacOSXTiger, entries[1].Label)

	cfg.Run.DryRun = true
	reg = NewRegistry()
	RegisterDefaults(reg, cfg)
	b, err := reg.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, LabelRecorder, b.Label())
}
