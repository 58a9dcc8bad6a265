package tray

import (
	"sync"

	"github.com/bft-labs/sleeponlan/internal/ports"
)

// Headless is an Indicator without any UI. Its event loop simply waits for
// Quit; status changes go to the log.
type Headless struct {
	logger ports.Logger

	mu     sync.Mutex
	status string

	exitCh   chan struct{}
	exitOnce sync.Once
	quitCh   chan struct{}
	quitOnce sync.Once
}

// NewHeadless returns an indicator for machines without a desktop session.
func NewHeadless(logger ports.Logger) *Headless {
	return &Headless{
		logger: logger,
		exitCh: make(chan struct{}),
		quitCh: make(chan struct{}),
	}
}

func (h *Headless) Run(onReady func()) {
	onReady()
	<-h.quitCh
}

func (h *Headless) Quit() {
	h.quitOnce.Do(func() { close(h.quitCh) })
}

func (h *Headless) SetStatus(text string) {
	h.mu.Lock()
	h.status = text
	h.mu.Unlock()
	h.logger.Debug("status", ports.String("status", text))
}

func (h *Headless) ExitClicked() <-chan struct{} {
	return h.exitCh
}

// Exit activates the Exit command as an operator click would.
func (h *Headless) Exit() {
	h.exitOnce.Do(func() { close(h.exitCh) })
}

// Status returns the last status text.
func (h *Headless) Status() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}
