// Package domain contains the core entities and value objects for sleeponlan.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (sockets, file system, logging, tray) and contains
// only the rules the agent is built around.
//
// # Entities
//
//   - [Configuration]: the single persisted setting, the listening port
//   - [Datagram]: an inbound UDP payload and its source, evaluated once
//
// # Rules
//
//   - [Datagram.Qualifies]: the magic-packet heuristic deciding whether a
//     datagram triggers a host shutdown
//   - [ValidPort]: the port range accepted for binding
//
// Errors returned across package boundaries are defined in errors.go and can
// be matched with errors.Is against the Err* sentinels.
package domain
