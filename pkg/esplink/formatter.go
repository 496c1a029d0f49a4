// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import "fmt"

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.timestamp.Format("15:04:05.000")
	msgType := FormatMessageType(p.msgType)

	result := fmt.Sprintf("[%s] %s (0x%02X) src=%d seq=%d len=%d\n",
		timestamp, msgType, p.msgType, p.src, p.seq, p.length)

	result += FormatPayload(p.msgType, p.payload)

	return result
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgWheelTurn:
		return "WHEEL_TURN"
	case MsgRepairProgress:
		return "REPAIR_PROGRESS"
	case MsgJackState:
		return "JACK_STATE"
	case MsgWeaponTag:
		return "WEAPON_TAG"
	case MsgReloadTag:
		return "RELOAD_TAG"
	case MsgWeaponImu:
		return "WEAPON_IMU"
	default:
		return "UNKNOWN"
	}
}

// FormatPayload formats a payload based on message type, falling back to
// a hex dump for unknown types or malformed payloads.
func FormatPayload(msgType uint8, payload []byte) string {
	switch msgType {
	case MsgWheelTurn:
		if data, err := ParseWheelTurn(payload); err == nil {
			dir := "left"
			if data.Right {
				dir = "right"
			}
			return fmt.Sprintf("  Wheel %d turned %s\n", data.WheelIndex, dir)
		}

	case MsgRepairProgress:
		if data, err := ParseRepairProgress(payload); err == nil {
			return fmt.Sprintf("  Repair amount: %d\n", data.Amount)
		}

	case MsgJackState:
		if data, err := ParseJackState(payload); err == nil {
			return fmt.Sprintf("  Jack state: %d\n", data.State)
		}

	case MsgWeaponTag:
		if data, err := ParseWeaponTag(payload); err == nil {
			return fmt.Sprintf("  Side: %s, UID: 0x%08X, Button: %d\n",
				formatSide(data.Side), data.UID, data.Button)
		}

	case MsgReloadTag:
		if data, err := ParseReloadTag(payload); err == nil {
			return fmt.Sprintf("  UID: 0x%08X\n", data.UID)
		}

	case MsgWeaponImu:
		if data, err := ParseWeaponImu(payload); err == nil {
			return fmt.Sprintf("  Side: %s, Pitch: %.1f°, Yaw: %.1f°, Buttons: 0x%02X\n",
				formatSide(data.Side), float64(data.Pitch)/10.0, float64(data.Yaw)/10.0, data.Buttons)
		}
	}

	if len(payload) == 0 {
		return "  (no payload)\n"
	}

	// Default: hex dump
	result := "  Payload: "
	for i, b := range payload {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}

func formatSide(side uint8) string {
	switch side {
	case 0:
		return "LEFT"
	case 1:
		return "RIGHT"
	default:
		return fmt.Sprintf("SIDE_%d", side)
	}
}
