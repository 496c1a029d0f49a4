// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benchline/benchscope/pkg/esplink"
	"github.com/spf13/cobra"
)

var captureOutput string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record decoded packets to a capture file",
	Long: `Decode packets from the connection and append them to a capture file.

Each decoded packet is stored as a CBOR record with its receive timestamp,
header fields, and payload. Corrupted spans are discarded the same way the
watch command discards them; only packets passing the CRC check are recorded.

Capture files can be inspected or re-analyzed later with the replay command.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "Capture file path (required)")
	captureCmd.MarkFlagRequired("output")
}

func runCapture(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	f, err := os.OpenFile(captureOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %v", err)
	}
	defer f.Close()

	fmt.Printf("Benchscope - Packet Capture\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Capture file: %s\n", captureOutput)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	parser := esplink.NewParser(parserCfg)
	writer := esplink.NewCaptureWriter(f)
	captured := 0

	// Stop on SIGINT/SIGTERM so the summary line gets printed
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

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
				fmt.Printf("\nConnection closed. Captured %d packets.\n", captured)
				return nil
			}
			res := parser.IngestAndParse(data)
			for _, packet := range res.Packets {
				if err := writer.WritePacket(packet); err != nil {
					return fmt.Errorf("capture write failed: %v", err)
				}
				captured++
			}

		case <-sigChan:
			fmt.Printf("\nStopped. Captured %d packets.\n", captured)
			return nil
		}
	}
}
