// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/benchline/benchscope/pkg/esplink"
	"github.com/spf13/cobra"
)

var replayShowStats bool

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Play back a capture file in human-readable format",
	Long: `Read a capture file and display its packets the way watch would.

Each record is validated again on replay, so a capture taken with an older
build can be re-checked against current validation rules. Use --stats to
print a summary of the whole file after playback.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayShowStats, "stats", false, "Print summary statistics after playback")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture file: %v", err)
	}
	defer f.Close()

	reader := esplink.NewCaptureReader(f)
	stats := esplink.NewStatistics()

	for {
		packet, err := reader.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("capture read failed: %v", err)
		}

		validationErrors := esplink.ValidatePacket(packet)
		stats.RecordPacket(packet, validationErrors)

		fmt.Print(esplink.FormatPacket(packet))
		for _, verr := range validationErrors {
			fmt.Printf("  \033[1;33m! %s\033[0m\n", verr.Message)
		}
	}

	if replayShowStats {
		fmt.Println()
		fmt.Print(stats.String())
	}

	return nil
}
