// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/benchline/benchscope/pkg/esplink"
	"github.com/spf13/cobra"
)

var (
	genCount    int
	genInterval int
	genSrc      int
	genCorrupt  int
	genStdout   bool
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Emit test frames to the connection or stdout",
	Long: `Generate well-formed esplink frames with plausible payloads.

Frames cycle through all known message types with incrementing sequence
numbers. Use --corrupt to flip a byte in every Nth frame, which is useful for
exercising resync behavior on the receiving side.

With --stdout the raw frames are written as hex to standard output instead of
being sent over a connection, so no --port or --url is needed.`,
	RunE: runGen,
}

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().IntVarP(&genCount, "count", "c", 10, "Number of frames to emit (0 for unlimited)")
	genCmd.Flags().IntVar(&genInterval, "interval", 100, "Delay between frames (milliseconds)")
	genCmd.Flags().IntVar(&genSrc, "src", 1, "Source identifier byte")
	genCmd.Flags().IntVar(&genCorrupt, "corrupt", 0, "Corrupt every Nth frame (0 to disable)")
	genCmd.Flags().BoolVar(&genStdout, "stdout", false, "Write hex-encoded frames to stdout instead of a connection")
}

// genPayload builds a plausible payload for the given message type
func genPayload(rng *rand.Rand, msgType uint8) []byte {
	switch msgType {
	case esplink.MsgWheelTurn:
		return []byte{uint8(rng.Intn(esplink.MaxWheelIndex + 1)), uint8(rng.Intn(2))}
	case esplink.MsgRepairProgress:
		amount := uint16(rng.Intn(500))
		return []byte{byte(amount), byte(amount >> 8)}
	case esplink.MsgJackState:
		return []byte{uint8(rng.Intn(3))}
	case esplink.MsgWeaponTag:
		uid := rng.Uint32()
		return []byte{uint8(rng.Intn(2)), byte(uid), byte(uid >> 8), byte(uid >> 16), byte(uid >> 24), uint8(rng.Intn(2))}
	case esplink.MsgReloadTag:
		uid := rng.Uint32()
		return []byte{byte(uid), byte(uid >> 8), byte(uid >> 16), byte(uid >> 24)}
	case esplink.MsgWeaponImu:
		pitch := int16(rng.Intn(1801) - 900)
		yaw := int16(rng.Intn(3601) - 1800)
		return []byte{uint8(rng.Intn(2)),
			byte(pitch), byte(uint16(pitch) >> 8),
			byte(yaw), byte(uint16(yaw) >> 8),
			uint8(rng.Intn(4))}
	default:
		return nil
	}
}

func runGen(cmd *cobra.Command, args []string) error {
	var out func([]byte) error

	if genStdout {
		out = func(frame []byte) error {
			fmt.Printf("% X\n", frame)
			return nil
		}
	} else {
		conn, connInfo, err := OpenConnection()
		if err != nil {
			return err
		}
		defer conn.Close()

		fmt.Fprintf(os.Stderr, "Benchscope - Frame Generator\n")
		fmt.Fprintf(os.Stderr, "Connection: %s\n\n", connInfo)

		out = func(frame []byte) error {
			_, err := conn.Write(frame)
			return err
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	msgTypes := []uint8{
		esplink.MsgWheelTurn,
		esplink.MsgRepairProgress,
		esplink.MsgJackState,
		esplink.MsgWeaponTag,
		esplink.MsgReloadTag,
		esplink.MsgWeaponImu,
	}

	seq := uint16(0)
	for i := 0; genCount == 0 || i < genCount; i++ {
		msgType := msgTypes[i%len(msgTypes)]
		payload := genPayload(rng, msgType)

		frame, err := esplink.EncodeFrame(1, uint8(genSrc), msgType, seq, payload)
		if err != nil {
			return fmt.Errorf("encode failed: %v", err)
		}
		seq++

		if genCorrupt > 0 && (i+1)%genCorrupt == 0 {
			// Flip a byte somewhere between VER and CRC
			idx := 1 + rng.Intn(len(frame)-2)
			frame[idx] ^= 0xFF
		}

		if err := out(frame); err != nil {
			return fmt.Errorf("write failed: %v", err)
		}

		if genInterval > 0 && (genCount == 0 || i < genCount-1) {
			time.Sleep(time.Duration(genInterval) * time.Millisecond)
		}
	}

	return nil
}
