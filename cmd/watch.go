// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"log"

	"github.com/benchline/benchscope/pkg/esplink"
	"github.com/spf13/cobra"
)

var watchVerbose bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Display decoded packets in human-readable format",
	Long: `Continuously decode and display esplink packets as they arrive.

Each packet is shown with timestamp, message type, source controller, sequence
number, and decoded payload data. Corrupted spans are silently skipped unless
--verbose is set.

Supports both serial and WebSocket connections.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Report dropped bytes and resync events")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Benchscope - Packet Watch\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	parser := esplink.NewParser(parserCfg)
	buf := make([]byte, 512)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		res := parser.IngestAndParse(buf[:n])

		if watchVerbose {
			if res.BadEndFrames > 0 {
				fmt.Printf("[RESYNC] %d frame(s) with bad end marker\n", res.BadEndFrames)
			}
			if res.CrcMismatches > 0 {
				fmt.Printf("[RESYNC] %d frame(s) with CRC mismatch\n", res.CrcMismatches)
			}
			if res.BytesDropped > 0 {
				fmt.Printf("[DROP] %d byte(s) discarded\n", res.BytesDropped)
			}
		}

		for _, packet := range res.Packets {
			fmt.Print(esplink.FormatPacket(packet))
		}
	}
}
