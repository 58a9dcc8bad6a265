//go:build !unix && !windows

package listener

func isAddrInUse(error) bool { return false }
