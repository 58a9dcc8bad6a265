package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"config", &ConfigError{Path: "config.cfg", Reason: "bad", Err: cause}, ErrConfig},
		{"bind", &BindError{Port: 9, Err: cause}, ErrBind},
		{"receive", &TransientReceiveError{Err: cause}, ErrTransientReceive},
		{"shutdown", &ShutdownInvocationError{Command: "shutdown", Err: cause}, ErrShutdownInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("startup: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.ErrorIs(t, wrapped, cause)
		})
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Path: "/etc/config.cfg", Reason: "PORT entry not found"}
	assert.Equal(t, "config /etc/config.cfg: PORT entry not found", err.Error())

	err = &ConfigError{Path: "c", Reason: "read", Err: fs.ErrPermission}
	assert.Contains(t, err.Error(), fs.ErrPermission.Error())
}

func TestBindError_Message(t *testing.T) {
	assert.Contains(t, (&BindError{Port: 9, InUse: true}).Error(), "already in use")
	assert.Contains(t, (&BindError{Port: 70000}).Error(), "invalid port")
}
