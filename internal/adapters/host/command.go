// Package host implements ports.HostAction by running the operating system's
// power-off command.
package host

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/bft-labs/sleeponlan/internal/domain"
	"github.com/bft-labs/sleeponlan/internal/ports"
)

// CommandShutdowner powers the machine off by starting an external command.
type CommandShutdowner struct {
	argv   []string
	logger ports.Logger
}

// NewCommandShutdowner returns a shutdowner running argv. An empty argv
// selects the platform default.
func NewCommandShutdowner(argv []string, logger ports.Logger) *CommandShutdowner {
	if len(argv) == 0 {
		argv = DefaultCommand()
	}
	return &CommandShutdowner{argv: argv, logger: logger}
}

// ParseCommand splits a configured command line on whitespace.
func ParseCommand(s string) []string {
	return strings.Fields(s)
}

// Command returns the command line that PowerOff runs.
func (c *CommandShutdowner) Command() string {
	return strings.Join(c.argv, " ")
}

// PowerOff starts the command and returns once it is running. The process is
// reaped in the background; its exit status is only logged.
func (c *CommandShutdowner) PowerOff() error {
	if len(c.argv) == 0 {
		return &domain.ShutdownInvocationError{Err: errors.New("no shutdown command for this platform")}
	}

	cmd := exec.Command(c.argv[0], c.argv[1:]...)
	if err := cmd.Start(); err != nil {
		return &domain.ShutdownInvocationError{Command: c.Command(), Err: err}
	}

	c.logger.Info("host shutdown requested",
		ports.String("command", c.Command()),
		ports.Int("pid", cmd.Process.Pid),
	)

	go func() {
		if err := cmd.Wait(); err != nil {
			c.logger.Warn("shutdown command exited with error",
				ports.String("command", c.Command()),
				ports.Err(err),
			)
		}
	}()
	return nil
}

// DryRun logs the power-off request instead of acting on it.
type DryRun struct {
	command string
	logger  ports.Logger
}

// NewDryRun returns a HostAction that only logs what it would have run.
func NewDryRun(command string, logger ports.Logger) *DryRun {
	return &DryRun{command: command, logger: logger}
}

// PowerOff logs and returns nil.
func (d *DryRun) PowerOff() error {
	d.logger.Warn("dry run: host shutdown suppressed", ports.String("command", d.command))
	return nil
}
