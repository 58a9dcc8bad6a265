// Package app runs the agent: it loads the port file, starts the listener,
// drives the foreground indicator and tears everything down in order.
//
// # Lifecycle
//
//	Stopped → Starting → Running → Stopping → Stopped
//	                 ↘        ↘          ↘
//	                  Crashed  Crashed    Crashed
//
// Startup failures (bad port file, bind failure) end in Crashed without the
// indicator ever being shown. A run ends when the operator chooses Exit, when
// the listener has acted on a magic packet, or when the caller's context is
// cancelled. Teardown always asks the listener to stop, waits for it, and only
// then releases the indicator.
package app
