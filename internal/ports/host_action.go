package ports

// HostAction terminates the machine the agent runs on.
type HostAction interface {
	// PowerOff issues the power-off request and returns without waiting for
	// the machine to go down. A non-nil error means the request could not
	// be issued at all.
	PowerOff() error
}
