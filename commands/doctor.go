package commands

import (
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/supervisor"
	"github.com/castanaut/castanaut/types"
)

type BackendInfo struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Supported bool   `json:"supported"`
}

type DoctorInfo struct {
	CastanautVersion string        `json:"castanaut_version"`
	OS               string        `json:"os"`
	OSVersion        string        `json:"os_version"`
	Backends         []BackendInfo `json:"backends"`
	SelectedBackend  string        `json:"selected_backend,omitempty"`
	HelperPath       string        `json:"helper_path"`
	HelperExecutable bool          `json:"helper_executable"`
	OsascriptPath    string        `json:"osascript_path,omitempty"`
	SayPath          string        `json:"say_path,omitempty"`
	ConfigPath       string        `json:"config_path,omitempty"`
	SentinelPath     string        `json:"sentinel_path"`
	Running          bool          `json:"running"`
	Quiet            bool          `json:"quiet"`
}

func getOSVersion() string {
	switch runtime.GOOS {
	case "darwin":
		cmd := exec.Command("sw_vers", "-productVersion")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "linux":
		// try reading /etc/os-release
		data, err := os.ReadFile("/etc/os-release")
		if err != nil {
			return ""
		}
		lines := strings.Split(string(data), "\n")
		for _, line := range lines {
			if strings.HasPrefix(line, "PRETTY_NAME=") {
				return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
			}
		}
		return ""
	default:
		return ""
	}
}

func lookPath(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode()&0111 != 0
}

// DoctorCommand performs system diagnostics and returns information about the environment
func DoctorCommand(version string) *CommandResponse {
	cfg := GetConfig()

	info := DoctorInfo{
		CastanautVersion: version,
		OS:               runtime.GOOS,
		OSVersion:        getOSVersion(),
		Backends:         []BackendInfo{},
		HelperPath:       cfg.Automation.HelperPath,
		HelperExecutable: isExecutable(cfg.Automation.HelperPath),
		OsascriptPath:    lookPath("osascript"),
		SayPath:          lookPath("say"),
		ConfigPath:       config.DefaultPath(),
		SentinelPath:     cfg.Run.SentinelPath,
		Running:          supervisor.Running(cfg.Run.SentinelPath),
		Quiet:            cfg.Run.Quiet,
	}

	if registry := GetRegistry(); registry != nil {
		for _, entry := range registry.Entries() {
			supported := entry.Supported()
			info.Backends = append(info.Backends, BackendInfo{
				ID:        entry.ID,
				Label:     entry.Label,
				Supported: supported,
			})
			if supported && info.SelectedBackend == "" {
				info.SelectedBackend = entry.Label
			}
		}
	}

	return NewSuccessResponse(info)
}

type KeyInfo struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// KeysCommand lists the symbolic key names accepted by hit
func KeysCommand() *CommandResponse {
	keys := make([]KeyInfo, 0, len(types.KeyNames))
	for name, code := range types.KeyNames {
		keys = append(keys, KeyInfo{Name: name, Code: code})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Name < keys[j].Name
	})
	return NewSuccessResponse(keys)
}
