//go:build windows

package host

// DefaultCommand shuts Windows down with no grace period.
func DefaultCommand() []string {
	return []string{"shutdown", "/s", "/t", "0"}
}
