package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (SLEEPONLAN_*). It respects flags that have been explicitly set (changed
// map) and returns an error if a duration has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("port-file", os.Getenv("SLEEPONLAN_PORT_FILE"), &cfg.PortFile)
	s.setString("log-level", os.Getenv("SLEEPONLAN_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", os.Getenv("SLEEPONLAN_LOG_FILE"), &cfg.LogFile)
	s.setString("shutdown-command", os.Getenv("SLEEPONLAN_SHUTDOWN_COMMAND"), &cfg.ShutdownCommand)

	if err := s.setDuration("poll", os.Getenv("SLEEPONLAN_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("SLEEPONLAN_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBoolFromString("headless", os.Getenv("SLEEPONLAN_HEADLESS"), &cfg.Headless)
	s.setBoolFromString("dry-run", os.Getenv("SLEEPONLAN_DRY_RUN"), &cfg.DryRun)
	s.setBoolFromString("dump", os.Getenv("SLEEPONLAN_DUMP"), &cfg.Dump)
	s.setBoolFromString("watch", os.Getenv("SLEEPONLAN_WATCH"), &cfg.Watch)

	return nil
}
