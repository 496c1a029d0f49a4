// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/benchline/benchscope/pkg/esplink"
	"github.com/spf13/cobra"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid esplink packet",
	Long: `Wait for a valid esplink packet on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any valid
esplink packet. It ignores junk bytes and corrupted frames and waits for a
complete frame passing the end marker and CRC checks.

Exit codes:
  0 - Packet received before timeout
  1 - Timeout reached without receiving a valid packet
  2 - Connection error

Useful for testing connectivity to a bench controller or WebSocket bridge.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a packet")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Benchscope - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid esplink packet...\n\n")

	parser := esplink.NewParser(parserCfg)

	// Channel for packet reception
	packetChan := make(chan *esplink.Packet, 1)
	errChan := make(chan error, 1)

	// Reader goroutine
	go func() {
		buf := make([]byte, 512)
		droppedBytes := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			res := parser.IngestAndParse(buf[:n])
			droppedBytes += res.BytesDropped

			if len(res.Packets) > 0 {
				// Got a valid packet!
				if droppedBytes > 0 {
					fmt.Printf("(skipped %d bytes before sync)\n", droppedBytes)
				}
				packetChan <- res.Packets[0]
				return
			}
		}
	}()

	// Wait for packet or timeout
	select {
	case packet := <-packetChan:
		fmt.Printf("SUCCESS: Received valid packet\n")
		fmt.Printf("  Type: %s (0x%02X)\n", esplink.FormatMessageType(packet.Type()), packet.Type())
		fmt.Printf("  Source: %d\n", packet.Source())
		fmt.Printf("  Seq: %d\n", packet.Seq())
		fmt.Printf("  Length: %d bytes\n", packet.Length())
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(packetTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid packet received within %d seconds\n", packetTestTimeout)
		os.Exit(1)
	}

	return nil
}
