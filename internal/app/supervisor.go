package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/sleeponlan/internal/domain"
	"github.com/bft-labs/sleeponlan/internal/listener"
	"github.com/bft-labs/sleeponlan/internal/ports"
)

// Foreground is the UI side of the agent; *tray.Controller implements it.
type Foreground interface {
	Run()
	Quit()
	Close()
	SetStatus(text string)
	ExitRequested() <-chan struct{}
}

// Watcher reports port file edits made while the agent runs.
type Watcher interface {
	Watch(ctx context.Context, active domain.Configuration, onDrift func(string))
}

// Supervisor owns one agent run.
type Supervisor struct {
	store   ports.ConfigStore
	action  ports.HostAction
	fg      Foreground
	watcher Watcher
	logger  ports.Logger

	pollInterval    time.Duration
	shutdownTimeout time.Duration
	dump            bool

	lifecycle *Lifecycle

	mu    sync.Mutex
	port  int
	drift string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithPollInterval sets the listener's receive timeout.
func WithPollInterval(d time.Duration) Option {
	return func(s *Supervisor) { s.pollInterval = d }
}

// WithShutdownTimeout bounds how long teardown waits for workers.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithDump enables datagram dumps in the listener.
func WithDump(dump bool) Option {
	return func(s *Supervisor) { s.dump = dump }
}

// WithWatcher enables port file drift reporting.
func WithWatcher(w Watcher) Option {
	return func(s *Supervisor) { s.watcher = w }
}

// NewSupervisor wires the agent's parts together. Nothing is started until
// Run.
func NewSupervisor(store ports.ConfigStore, action ports.HostAction, fg Foreground, logger ports.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		store:           store,
		action:          action,
		fg:              fg,
		logger:          logger,
		pollInterval:    listener.DefaultPollInterval,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lifecycle = NewLifecycle(logger, s)
	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return s.lifecycle.State()
}

// Run starts the agent and blocks in the foreground event loop until the
// run ends, then tears down. It must be called from the goroutine that owns
// the UI (the main goroutine for a system tray).
//
// Startup failures are returned wrapped; they match domain.ErrConfig or
// domain.ErrBind. A teardown that exceeds the shutdown timeout returns
// domain.ErrShutdownTimeout.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(StateStarting, "run"); err != nil {
		return err
	}

	cfg, err := s.store.Load()
	if err != nil {
		_ = s.lifecycle.TransitionTo(StateCrashed, "port file")
		return fmt.Errorf("load port file: %w", err)
	}

	lis, err := listener.Start(listener.Config{
		Port:         cfg.Port,
		PollInterval: s.pollInterval,
		Dump:         s.dump,
	}, s.action, s.logger)
	if err != nil {
		_ = s.lifecycle.TransitionTo(StateCrashed, "bind")
		return fmt.Errorf("start listener: %w", err)
	}

	s.mu.Lock()
	s.port = cfg.Port
	s.drift = ""
	s.mu.Unlock()

	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()
		<-lis.Done()
	}()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if s.watcher != nil {
		s.lifecycle.AddWorker()
		go func() {
			defer s.lifecycle.WorkerDone()
			s.watcher.Watch(watchCtx, cfg, s.onDrift)
		}()
	}

	_ = s.lifecycle.TransitionTo(StateRunning, fmt.Sprintf("listening on udp port %d", cfg.Port))

	reasonCh := make(chan string, 1)
	loopDone := make(chan struct{})
	go func() {
		reason := "event loop ended"
		select {
		case <-s.fg.ExitRequested():
			reason = "exit requested"
		case <-lis.Done():
			reason = "listener terminated"
			if lis.Triggered() {
				reason = "magic packet received"
			}
		case <-ctx.Done():
			reason = "context cancelled"
		case <-loopDone:
			reasonCh <- reason
			return
		}
		reasonCh <- reason
		s.fg.Quit()
	}()

	s.fg.Run()
	close(loopDone)
	reason := <-reasonCh

	_ = s.lifecycle.TransitionTo(StateStopping, reason)

	lis.RequestStop()
	cancelWatch()
	waitErr := s.lifecycle.WaitWithTimeout(s.shutdownTimeout)
	s.fg.Close()

	if waitErr != nil {
		_ = s.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
		return waitErr
	}
	_ = s.lifecycle.TransitionTo(StateStopped, reason)
	return nil
}

// OnStateChange keeps the indicator's status text current.
func (s *Supervisor) OnStateChange(previous, current State, reason string) {
	switch current {
	case StateStarting:
		s.fg.SetStatus("Starting")
	case StateRunning:
		s.fg.SetStatus(s.runningStatus())
	case StateStopping:
		s.fg.SetStatus("Stopping")
	}
}

func (s *Supervisor) onDrift(msg string) {
	s.mu.Lock()
	s.drift = msg
	s.mu.Unlock()
	if s.lifecycle.State() == StateRunning {
		s.fg.SetStatus(s.runningStatus())
	}
}

func (s *Supervisor) runningStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := fmt.Sprintf("Listening on UDP port %d", s.port)
	if s.drift != "" {
		status += " (" + s.drift + ")"
	}
	return status
}
