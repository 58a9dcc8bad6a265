//go:build darwin

package host

func DefaultCommand() []string {
	return []string{"shutdown", "-h", "now"}
}
