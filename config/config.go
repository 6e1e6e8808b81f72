// Package config loads castanaut settings from an INI file. Every key is
// optional; missing files and keys fall back to the defaults below.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "CASTANAUT_CONFIG"
	// EnvQuiet silences narration when set to any value.
	EnvQuiet = "SHHH"

	DefaultSentinelPath    = "/tmp/castanaut.running"
	DefaultAppleScriptPath = "/tmp/castanaut.scpt"
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultGracePeriod     = 2 * time.Second
	DefaultShell           = "/bin/sh"
	DefaultListenAddress   = "localhost:12500"
)

// Config holds all runtime settings.
type Config struct {
	Run        RunConfig
	Automation AutomationConfig
	Log        LogConfig
	Server     ServerConfig
}

type RunConfig struct {
	SentinelPath string
	PollInterval time.Duration
	GracePeriod  time.Duration
	Monitor      bool
	Quiet        bool
	DryRun       bool
}

type AutomationConfig struct {
	Shell           string
	AppleScriptPath string
	HelperPath      string
	ScriptsDir      string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ServerConfig struct {
	Listen string
	CORS   bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			SentinelPath: DefaultSentinelPath,
			PollInterval: DefaultPollInterval,
			GracePeriod:  DefaultGracePeriod,
			Monitor:      true,
			Quiet:        os.Getenv(EnvQuiet) != "",
		},
		Automation: AutomationConfig{
			Shell:           DefaultShell,
			AppleScriptPath: DefaultAppleScriptPath,
			HelperPath:      defaultHelperPath(),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: ServerConfig{
			Listen: DefaultListenAddress,
		},
	}
}

// DefaultPath returns the config file used when none is given: the
// CASTANAUT_CONFIG variable, else ~/.castanaut.ini.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".castanaut.ini")
}

// Load reads path over the defaults. A missing file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	run := file.Section("run")
	cfg.Run.SentinelPath = run.Key("sentinel").MustString(cfg.Run.SentinelPath)
	cfg.Run.PollInterval = run.Key("poll_interval").MustDuration(cfg.Run.PollInterval)
	cfg.Run.GracePeriod = run.Key("grace_period").MustDuration(cfg.Run.GracePeriod)
	cfg.Run.Monitor = run.Key("monitor").MustBool(cfg.Run.Monitor)
	cfg.Run.Quiet = run.Key("quiet").MustBool(cfg.Run.Quiet)
	cfg.Run.DryRun = run.Key("dry_run").MustBool(cfg.Run.DryRun)

	auto := file.Section("automation")
	cfg.Automation.Shell = auto.Key("shell").MustString(cfg.Automation.Shell)
	cfg.Automation.AppleScriptPath = auto.Key("applescript_file").MustString(cfg.Automation.AppleScriptPath)
	cfg.Automation.HelperPath = auto.Key("helper").MustString(cfg.Automation.HelperPath)
	cfg.Automation.ScriptsDir = auto.Key("scripts_dir").MustString(cfg.Automation.ScriptsDir)

	logSec := file.Section("log")
	cfg.Log.Level = logSec.Key("level").MustString(cfg.Log.Level)
	cfg.Log.File = logSec.Key("file").MustString(cfg.Log.File)
	cfg.Log.MaxSizeMB = logSec.Key("max_size").MustInt(cfg.Log.MaxSizeMB)
	cfg.Log.MaxBackups = logSec.Key("max_backups").MustInt(cfg.Log.MaxBackups)
	cfg.Log.MaxAgeDays = logSec.Key("max_age").MustInt(cfg.Log.MaxAgeDays)

	srv := file.Section("server")
	cfg.Server.Listen = srv.Key("listen").MustString(cfg.Server.Listen)
	cfg.Server.CORS = srv.Key("cors").MustBool(cfg.Server.CORS)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the supervisor cannot work with.
func (c *Config) Validate() error {
	if c.Run.SentinelPath == "" {
		return fmt.Errorf("run.sentinel must not be empty")
	}
	if c.Run.PollInterval <= 0 {
		return fmt.Errorf("run.poll_interval must be positive, got %s", c.Run.PollInterval)
	}
	if c.Run.GracePeriod <= 0 {
		return fmt.Errorf("run.grace_period must be positive, got %s", c.Run.GracePeriod)
	}
	if c.Automation.Shell == "" {
		return fmt.Errorf("automation.shell must not be empty")
	}
	return nil
}

// defaultHelperPath looks for the osxautomation helper next to the
// executable, then in the conventional install prefix.
func defaultHelperPath() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "cbin", "osxautomation")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "/usr/local/lib/castanaut/cbin/osxautomation"
}
