package backends

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/castanaut/castanaut/utils"
	"howett.net/plist"
)

// Probe decides whether a backend applies to the current host.
type Probe interface {
	Supported() (bool, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func() (bool, error)

func (f ProbeFunc) Supported() (bool, error) {
	return f()
}

// Always is a probe that always matches.
var Always Probe = ProbeFunc(func() (bool, error) { return true, nil })

// VersionSource reports the host's OS product version, e.g. "10.5.8".
type VersionSource interface {
	ProductVersion() (string, error)
}

// VersionFunc adapts a function to VersionSource.
type VersionFunc func() (string, error)

func (f VersionFunc) ProductVersion() (string, error) {
	return f()
}

const systemVersionPlist = "/System/Library/CoreServices/SystemVersion.plist"

// SystemVersion reads the macOS product version from SystemVersion.plist,
// falling back to sw_vers.
type SystemVersion struct {
	PlistPath string
	SwVers    string
}

// DefaultSystemVersion is the version source used by the built-in probes.
var DefaultSystemVersion = &SystemVersion{
	PlistPath: systemVersionPlist,
	SwVers:    "/usr/bin/sw_vers",
}

type systemVersionInfo struct {
	ProductVersion string `plist:"ProductVersion"`
	ProductName    string `plist:"ProductName"`
}

func (s *SystemVersion) ProductVersion() (string, error) {
	if s.PlistPath != "" {
		v, err := readPlistVersion(s.PlistPath)
		if err == nil {
			return v, nil
		}
		utils.Verbose("could not read %s: %v", s.PlistPath, err)
	}

	if s.SwVers == "" {
		return "", fmt.Errorf("no version source available")
	}
	out, err := exec.Command(s.SwVers, "-productVersion").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", s.SwVers, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func readPlistVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var info systemVersionInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("failed to parse plist: %w", err)
	}
	if info.ProductVersion == "" {
		return "", fmt.Errorf("ProductVersion missing from %s", path)
	}
	return info.ProductVersion, nil
}

// MacOSProbe matches darwin hosts whose product version satisfies a semver
// constraint such as ">= 10.5" or "~10.4".
type MacOSProbe struct {
	Constraint string
	Version    VersionSource
	// GOOS overrides runtime.GOOS, for tests.
	GOOS string
}

func (p MacOSProbe) Supported() (bool, error) {
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "darwin" {
		return false, nil
	}

	constraint, err := semver.NewConstraint(p.Constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", p.Constraint, err)
	}

	source := p.Version
	if source == nil {
		source = DefaultSystemVersion
	}
	raw, err := source.ProductVersion()
	if err != nil {
		return false, err
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return false, fmt.Errorf("unrecognized product version %q: %w", raw, err)
	}
	return constraint.Check(version), nil
}
