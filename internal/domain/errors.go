package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the sleeponlan domain.
// These errors can be checked with errors.Is.
var (
	// ErrConfig is matched by every *ConfigError.
	ErrConfig = errors.New("sleeponlan: configuration error")

	// ErrBind is matched by every *BindError.
	ErrBind = errors.New("sleeponlan: bind error")

	// ErrTransientReceive is matched by every *TransientReceiveError.
	ErrTransientReceive = errors.New("sleeponlan: transient receive error")

	// ErrShutdownInvocation is matched by every *ShutdownInvocationError.
	ErrShutdownInvocation = errors.New("sleeponlan: shutdown invocation failed")

	// ErrAlreadyRunning is returned when Run() is called on a running supervisor.
	ErrAlreadyRunning = errors.New("sleeponlan: already running")

	// ErrNotRunning is returned when an operation requires a running instance.
	ErrNotRunning = errors.New("sleeponlan: not running")

	// ErrShutdownTimeout is returned when the listener does not join in time.
	ErrShutdownTimeout = errors.New("sleeponlan: shutdown timeout")

	// ErrInvalidConfig is returned when agent settings fail validation.
	ErrInvalidConfig = errors.New("sleeponlan: invalid configuration")
)

// ConfigError reports a port file that exists but cannot be used.
// A missing file is not a ConfigError; it is created with the default port.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// BindError reports that the listening socket could not be opened.
type BindError struct {
	Port int
	// InUse is set when the operating system reported the address as taken.
	InUse bool
	Err   error
}

func (e *BindError) Error() string {
	switch {
	case e.InUse:
		return fmt.Sprintf("bind udp port %d: address already in use", e.Port)
	case e.Err != nil:
		return fmt.Sprintf("bind udp port %d: %v", e.Port, e.Err)
	default:
		return fmt.Sprintf("bind udp port %d: invalid port", e.Port)
	}
}

func (e *BindError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBind.
func (e *BindError) Is(target error) bool { return target == ErrBind }

// TransientReceiveError wraps a per-iteration receive failure. It is logged
// by the listener and never returned to callers.
type TransientReceiveError struct {
	Err error
}

func (e *TransientReceiveError) Error() string { return "receive: " + e.Err.Error() }

func (e *TransientReceiveError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransientReceive.
func (e *TransientReceiveError) Is(target error) bool { return target == ErrTransientReceive }

// ShutdownInvocationError reports that the host power-off request could not
// be issued.
type ShutdownInvocationError struct {
	Command string
	Err     error
}

func (e *ShutdownInvocationError) Error() string {
	if e.Command == "" {
		return "invoke host shutdown: " + e.Err.Error()
	}
	return fmt.Sprintf("invoke host shutdown %q: %v", e.Command, e.Err)
}

func (e *ShutdownInvocationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrShutdownInvocation.
func (e *ShutdownInvocationError) Is(target error) bool { return target == ErrShutdownInvocation }
