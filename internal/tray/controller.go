// Package tray presents the agent's status indicator and its single Exit
// command.
//
// A Controller wraps a ports.Indicator (a system tray icon, or a headless
// stand-in) and turns the operator's Exit click into a one-shot exit request
// the supervisor can select on. Exit stops the agent, never the host.
package tray

import (
	"sync"

	"github.com/bft-labs/sleeponlan/internal/ports"
)

// Controller drives an Indicator.
type Controller struct {
	indicator ports.Indicator
	logger    ports.Logger

	exitOnce sync.Once
	exitCh   chan struct{}

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup

	mu          sync.Mutex
	ready       bool
	quitPending bool
}

// NewController returns a controller for indicator.
func NewController(indicator ports.Indicator, logger ports.Logger) *Controller {
	return &Controller{
		indicator: indicator,
		logger:    logger,
		exitCh:    make(chan struct{}),
		closeCh:   make(chan struct{}),
	}
}

// Run blocks in the indicator's event loop until Quit is called. It must run
// on the goroutine that owns the UI.
func (c *Controller) Run() {
	c.indicator.Run(func() {
		c.wg.Add(1)
		go c.forwardExit()
		c.logger.Debug("indicator ready")

		c.mu.Lock()
		c.ready = true
		quit := c.quitPending
		c.mu.Unlock()
		if quit {
			c.indicator.Quit()
		}
	})
}

func (c *Controller) forwardExit() {
	defer c.wg.Done()
	select {
	case <-c.indicator.ExitClicked():
		c.logger.Info("exit requested from tray")
		c.RequestExit()
	case <-c.closeCh:
	}
}

// RequestExit asks the supervisor to stop the agent. Repeated calls are
// ignored.
func (c *Controller) RequestExit() {
	c.exitOnce.Do(func() { close(c.exitCh) })
}

// ExitRequested is closed by the first RequestExit.
func (c *Controller) ExitRequested() <-chan struct{} {
	return c.exitCh
}

// SetStatus updates the indicator's status text.
func (c *Controller) SetStatus(text string) {
	c.indicator.SetStatus(text)
}

// Quit ends the event loop so that Run returns. A Quit that arrives before
// the indicator is ready is held and applied as soon as it is.
func (c *Controller) Quit() {
	c.mu.Lock()
	if !c.ready {
		c.quitPending = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.indicator.Quit()
}

// Close releases what Run acquired. Call it after Run has returned.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.closeCh) })
	c.wg.Wait()
}
