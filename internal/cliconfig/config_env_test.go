package cliconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		expected func(Config) Config
		wantErr  bool
	}{
		{
			name: "applies all env vars",
			envVars: map[string]string{
				"SLEEPONLAN_PORT_FILE":        "/env/config.cfg",
				"SLEEPONLAN_POLL_INTERVAL":    "20ms",
				"SLEEPONLAN_SHUTDOWN_TIMEOUT": "1s",
				"SLEEPONLAN_LOG_LEVEL":        "error",
				"SLEEPONLAN_LOG_FILE":         "/env/agent.log",
				"SLEEPONLAN_SHUTDOWN_COMMAND": "halt -p",
				"SLEEPONLAN_HEADLESS":         "1",
				"SLEEPONLAN_DRY_RUN":          "true",
				"SLEEPONLAN_DUMP":             "true",
				"SLEEPONLAN_WATCH":            "false",
			},
			changed: map[string]bool{},
			expected: func(Config) Config {
				return Config{
					PortFile:        "/env/config.cfg",
					PollInterval:    20 * time.Millisecond,
					ShutdownTimeout: time.Second,
					LogLevel:        "error",
					LogFile:         "/env/agent.log",
					ShutdownCommand: "halt -p",
					Headless:        true,
					DryRun:          true,
					Dump:            true,
					Watch:           false,
				}
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"SLEEPONLAN_PORT_FILE": "/env/config.cfg",
				"SLEEPONLAN_DRY_RUN":   "true",
			},
			changed: map[string]bool{"port-file": true},
			expected: func(c Config) Config {
				c.DryRun = true
				return c
			},
		},
		{
			name:    "invalid poll interval",
			envVars: map[string]string{"SLEEPONLAN_POLL_INTERVAL": "fast"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid shutdown timeout",
			envVars: map[string]string{"SLEEPONLAN_SHUTDOWN_TIMEOUT": "10"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			initial := cfg
			err := ApplyEnvConfig(&cfg, tt.changed)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected(initial), cfg)
		})
	}
}

func TestApplyEnvConfig_Unset(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ApplyEnvConfig(&cfg, map[string]bool{}))
	assert.Equal(t, DefaultConfig(), cfg)
}
