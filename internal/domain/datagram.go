package domain

import "net"

const (
	// minTriggerLen is the shortest payload that can qualify.
	minTriggerLen = 6
	syncByte      = 0xFF
	// macRepeats is the number of MAC copies in a standard magic packet.
	macRepeats = 16
)

// Datagram is a single inbound UDP payload. It has no identity beyond the one
// qualification check it is used for.
type Datagram struct {
	Source  *net.UDPAddr
	Payload []byte
}

// Qualifies reports whether the datagram is a shutdown trigger.
//
// The check is deliberately coarse: the payload must be at least six bytes,
// start with 0xFF and have a nonzero sixth byte. The MAC repetitions of a
// real magic packet are not inspected and the source is not considered.
func (d Datagram) Qualifies() bool {
	return Qualifies(d.Payload)
}

// Qualifies applies the magic-packet heuristic to a raw payload.
func Qualifies(p []byte) bool {
	return len(p) >= minTriggerLen && p[0] == syncByte && p[5] != 0
}

// MinimalTrigger returns the smallest payload that qualifies.
func MinimalTrigger() []byte {
	return []byte{syncByte, 0x00, 0x00, 0x00, 0x00, 0x01}
}

// MagicPacket builds a standard Wake-on-LAN magic packet for mac: six 0xFF
// bytes followed by sixteen copies of the hardware address.
func MagicPacket(mac net.HardwareAddr) []byte {
	p := make([]byte, 0, minTriggerLen+macRepeats*len(mac))
	for i := 0; i < minTriggerLen; i++ {
		p = append(p, syncByte)
	}
	for i := 0; i < macRepeats; i++ {
		p = append(p, mac...)
	}
	return p
}
