// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the agent core and the outside world. They
// describe what the core needs from the host without saying how it is done.
//
// # Port Interfaces
//
//   - [ConfigStore]: loads (or bootstraps) the persisted listening port
//   - [HostAction]: terminates the machine immediately
//   - [Indicator]: the foreground tray/status surface and its Exit command
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) and the listener depend only on these
// interfaces. Adapters (internal/adapters, internal/tray, internal/configstore)
// implement them with zerolog, os/exec, systray and the file system.
package ports
