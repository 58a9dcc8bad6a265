package domain

// DefaultPort is written to a fresh port file. It is the discard port
// commonly used for Wake-on-LAN.
const DefaultPort = 9

const (
	minPort = 1
	maxPort = 65535
)

// Configuration is the persisted agent setting.
// It is read once at startup and never mutated afterwards.
type Configuration struct {
	Port int
}

// ValidPort reports whether p can be used to bind a UDP socket.
func ValidPort(p int) bool {
	return p >= minPort && p <= maxPort
}
