package ports

// Indicator is the foreground status surface of the agent, normally a tray
// icon. Run must be called from the goroutine that owns the UI event loop.
type Indicator interface {
	// Run blocks in the event loop. onReady is invoked once the surface is
	// visible; Run returns after Quit has been called.
	Run(onReady func())

	// Quit ends the event loop started by Run. Safe to call from any
	// goroutine and more than once.
	Quit()

	// SetStatus updates the status text shown to the operator.
	SetStatus(text string)

	// ExitClicked delivers one value per operator activation of the Exit
	// command. Only valid after onReady has run.
	ExitClicked() <-chan struct{}
}
