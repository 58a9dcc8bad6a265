package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bft-labs/sleeponlan/internal/domain"
)

func newSendCmd() *cobra.Command {
	var (
		hostAddr string
		port     int
		mac      string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a sleep trigger to an agent",
		Long: `Send one trigger datagram to host:port. Without --mac the payload is the
minimal FF 00 00 00 00 01; with --mac it is a standard magic packet for that
hardware address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidPort(port) {
				return fmt.Errorf("port %d out of range", port)
			}

			payload := domain.MinimalTrigger()
			if mac != "" {
				hw, err := net.ParseMAC(mac)
				if err != nil {
					return fmt.Errorf("parse mac: %w", err)
				}
				if len(hw) != 6 {
					return fmt.Errorf("parse mac: %s is not a 48-bit address", mac)
				}
				payload = domain.MagicPacket(hw)
			}

			addr := net.JoinHostPort(hostAddr, strconv.Itoa(port))
			if err := sendTrigger(addr, payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d bytes to %s\n", len(payload), addr)
			return nil
		},
	}

	cmd.Flags().StringVar(&hostAddr, "host", "127.0.0.1", "agent host or broadcast address")
	cmd.Flags().IntVar(&port, "port", domain.DefaultPort, "agent UDP port")
	cmd.Flags().StringVar(&mac, "mac", "", "send a magic packet for this hardware address")
	return cmd
}

func sendTrigger(addr string, payload []byte) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send to %s: %w", addr, err)
	}
	return nil
}
