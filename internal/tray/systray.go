package tray

import (
	"sync"

	"fyne.io/systray"
)

// Systray is an Indicator backed by the desktop notification area.
type Systray struct {
	title string

	mu      sync.Mutex
	ready   bool
	pending string
	exitCh  <-chan struct{}

	quitPending bool
	quitOnce    sync.Once
}

// NewSystray returns a tray indicator whose tooltip starts with title.
func NewSystray(title string) *Systray {
	return &Systray{title: title}
}

func (s *Systray) Run(onReady func()) {
	systray.Run(func() {
		systray.SetIcon(iconBytes())
		item := systray.AddMenuItem("Exit", "Stop listening and quit")

		s.mu.Lock()
		s.exitCh = item.ClickedCh
		s.ready = true
		quit := s.quitPending
		systray.SetTooltip(s.tooltip(s.pending))
		s.mu.Unlock()

		onReady()
		if quit {
			s.quitOnce.Do(systray.Quit)
		}
	}, func() {})
}

// Quit ends the tray loop. systray cannot be quit before it has registered,
// so an early Quit is applied once the icon is ready.
func (s *Systray) Quit() {
	s.mu.Lock()
	if !s.ready {
		s.quitPending = true
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.quitOnce.Do(systray.Quit)
}

// SetStatus updates the tooltip. Calls made before the icon is shown are
// applied once it is.
func (s *Systray) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = text
	if s.ready {
		systray.SetTooltip(s.tooltip(text))
	}
}

func (s *Systray) ExitClicked() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCh
}

func (s *Systray) tooltip(status string) string {
	if status == "" {
		return s.title
	}
	return s.title + ": " + status
}
