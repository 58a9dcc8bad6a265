package cliconfig

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config with durations as strings. The same keys work in
// TOML and YAML.
type FileConfig struct {
	PortFile        string `toml:"port_file" yaml:"port_file"`
	PollInterval    string `toml:"poll_interval" yaml:"poll_interval"`
	ShutdownTimeout string `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel        string `toml:"log_level" yaml:"log_level"`
	LogFile         string `toml:"log_file" yaml:"log_file"`
	ShutdownCommand string `toml:"shutdown_command" yaml:"shutdown_command"`
	Headless        *bool  `toml:"headless" yaml:"headless"`
	DryRun          *bool  `toml:"dry_run" yaml:"dry_run"`
	Dump            *bool  `toml:"dump" yaml:"dump"`
	Watch           *bool  `toml:"watch" yaml:"watch"`
}

// LoadFileConfig reads a settings file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.sleeponlan/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".sleeponlan", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("port-file", fc.PortFile, &cfg.PortFile)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("shutdown-command", fc.ShutdownCommand, &cfg.ShutdownCommand)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBool("headless", fc.Headless, &cfg.Headless)
	s.setBool("dry-run", fc.DryRun, &cfg.DryRun)
	s.setBool("dump", fc.Dump, &cfg.Dump)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
