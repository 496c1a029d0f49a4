// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/benchline/benchscope/pkg/esplink"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var linkStatsCmd = &cobra.Command{
	Use:   "linkstats",
	Short: "Track link quality, framing errors, and anomalous packets",
	Long: `Validate each packet and maintain running link statistics.

This command detects:
  - Framing errors (bad end markers, CRC mismatches, dropped bytes)
  - Malformed payloads (length mismatches, unknown message types)
  - Anomalous input values (out-of-range wheel index, impossible IMU angles)
  - Statistics and trends (packet rate, error rate, drop rate)

By default, only errors are displayed. Use --show-all to display valid packets too.

Packets are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runLinkStats,
}

func init() {
	rootCmd.AddCommand(linkStatsCmd)
	linkStatsCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all packets (not just errors)")
	linkStatsCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	linkStatsCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runLinkStats(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, connInfo)
	}
	return runTextMode(conn, connInfo)
}

// printFramingErrors prints resync events in highlighted format
func printFramingErrors(res esplink.ParseResult) {
	timestamp := time.Now().Format("15:04:05.000")
	if res.BadEndFrames > 0 {
		fmt.Printf("[%s] \033[1;31mFRAMING ERROR:\033[0m %d frame(s) with bad end marker\n", timestamp, res.BadEndFrames)
	}
	if res.CrcMismatches > 0 {
		fmt.Printf("[%s] \033[1;31mFRAMING ERROR:\033[0m %d frame(s) with CRC mismatch\n", timestamp, res.CrcMismatches)
	}
	if res.BadEndFrames > 0 || res.CrcMismatches > 0 {
		fmt.Printf("  %d byte(s) dropped during resync\n\n", res.BytesDropped)
	}
}

// printValidationErrors prints validation errors for a packet
func printValidationErrors(packet *esplink.Packet, errors []esplink.ValidationError) {
	timestamp := packet.Timestamp().Format("15:04:05.000")
	msgType := esplink.FormatMessageType(packet.Type())

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (0x%02X) src=%d seq=%d\n",
		timestamp, msgType, packet.Type(), packet.Source(), packet.Seq())
	fmt.Printf("  CRC: \033[1;32mOK\033[0m\n")

	for i, err := range errors {
		switch err.Type {
		case esplink.AnomalyLengthMismatch:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
			if length, ok := err.Details["length"].(int); ok {
				if expected, ok := err.Details["expected"].(int); ok {
					fmt.Printf("    Length: received=%d, expected=%d\n", length, expected)
				}
			}

		case esplink.AnomalyUnknownType:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)

		case esplink.AnomalyInvalidValue:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, err.Message)
		}
	}

	fmt.Printf("  >>> PACKET REJECTED <<<\n\n")
}

// runTUIMode runs link statistics in TUI mode
func runTUIMode(conn Connection, connInfo string) error {
	parser := esplink.NewParser(parserCfg)
	synchronized := false
	droppedBeforeSync := 0

	// Create TUI program
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	// Reader goroutine
	go func() {
		buf := make([]byte, 512)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					p.Send(connClosedMsg{})
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}

			res := parser.IngestAndParse(buf[:n])

			if !synchronized {
				// Drops before the first packet are expected noise from
				// joining the stream mid-frame
				droppedBeforeSync += res.BytesDropped
				if len(res.Packets) > 0 {
					synchronized = true
					p.Send(syncMsg{droppedBytes: droppedBeforeSync})
				}
			} else if res.BytesDropped > 0 || res.BadEndFrames > 0 || res.CrcMismatches > 0 {
				p.Send(framingErrorMsg{result: res})
			}

			if synchronized {
				for _, packet := range res.Packets {
					p.Send(packetMsg{
						packet:           packet,
						validationErrors: esplink.ValidatePacket(packet),
					})
				}
			}
		}
	}()

	// Run TUI
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}

// runTextMode runs link statistics in text mode
func runTextMode(conn Connection, connInfo string) error {
	fmt.Printf("Benchscope - Link Statistics\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All packets\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	parser := esplink.NewParser(parserCfg)
	stats := esplink.NewStatistics()

	// Sync tracking - ignore framing errors until first valid packet
	synchronized := false
	droppedBeforeSync := 0

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking reads
	chunks := make(chan []byte, 10)
	go func() {
		buf := make([]byte, 512)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					close(chunks)
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			chunks <- data
		}
	}()

	for {
		select {
		case data, ok := <-chunks:
			if !ok {
				fmt.Println("Connection closed")
				return nil
			}

			res := parser.IngestAndParse(data)

			if !synchronized {
				droppedBeforeSync += res.BytesDropped
				if len(res.Packets) > 0 {
					synchronized = true
					if droppedBeforeSync > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d bytes\n\n", droppedBeforeSync)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}
			} else {
				stats.RecordResult(res)
				if res.BadEndFrames > 0 || res.CrcMismatches > 0 {
					printFramingErrors(res)
				}
			}

			for _, packet := range res.Packets {
				validationErrors := esplink.ValidatePacket(packet)
				stats.RecordPacket(packet, validationErrors)

				if len(validationErrors) > 0 {
					printValidationErrors(packet, validationErrors)
				} else if showAll {
					fmt.Print(esplink.FormatPacket(packet))
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
