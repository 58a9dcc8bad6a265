//go:build !linux && !windows && !darwin

package host

// DefaultCommand uses the BSD form, which halts and powers off.
func DefaultCommand() []string {
	return []string{"shutdown", "-p", "now"}
}
