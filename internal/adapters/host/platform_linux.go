//go:build linux

package host

// DefaultCommand powers off through systemd, ignoring inhibitors and other
// logged-in sessions.
func DefaultCommand() []string {
	return []string{"systemctl", "poweroff", "-i"}
}
