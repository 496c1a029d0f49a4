// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import (
	"encoding/binary"
	"fmt"
)

// WheelTurnData is the WHEEL_TURN payload: [wheelIndex, direction]
type WheelTurnData struct {
	WheelIndex uint8
	Right      bool
}

// RepairProgressData is the REPAIR_PROGRESS payload: [amount u16 LE]
type RepairProgressData struct {
	Amount uint16
}

// JackStateData is the JACK_STATE payload: [state]
type JackStateData struct {
	State uint8
}

// WeaponTagData is the WEAPON_TAG payload: [side, uid u32 LE, button]
type WeaponTagData struct {
	Side   uint8
	UID    uint32
	Button uint8
}

// ReloadTagData is the RELOAD_TAG payload: [uid u32 LE]
type ReloadTagData struct {
	UID uint32
}

// WeaponImuData is the WEAPON_IMU payload:
// [side, pitch i16 LE, yaw i16 LE, buttons]. Pitch and yaw are in tenths
// of a degree.
type WeaponImuData struct {
	Side    uint8
	Pitch   int16
	Yaw     int16
	Buttons uint8
}

// ParseWheelTurn decodes a WHEEL_TURN payload
func ParseWheelTurn(payload []byte) (WheelTurnData, error) {
	if len(payload) != wheelTurnLen {
		return WheelTurnData{}, payloadLenError("WHEEL_TURN", wheelTurnLen, len(payload))
	}
	return WheelTurnData{
		WheelIndex: payload[0],
		Right:      payload[1] != 0,
	}, nil
}

// ParseRepairProgress decodes a REPAIR_PROGRESS payload
func ParseRepairProgress(payload []byte) (RepairProgressData, error) {
	if len(payload) != repairProgressLen {
		return RepairProgressData{}, payloadLenError("REPAIR_PROGRESS", repairProgressLen, len(payload))
	}
	return RepairProgressData{
		Amount: binary.LittleEndian.Uint16(payload),
	}, nil
}

// ParseJackState decodes a JACK_STATE payload
func ParseJackState(payload []byte) (JackStateData, error) {
	if len(payload) != jackStateLen {
		return JackStateData{}, payloadLenError("JACK_STATE", jackStateLen, len(payload))
	}
	return JackStateData{State: payload[0]}, nil
}

// ParseWeaponTag decodes a WEAPON_TAG payload
func ParseWeaponTag(payload []byte) (WeaponTagData, error) {
	if len(payload) != weaponTagLen {
		return WeaponTagData{}, payloadLenError("WEAPON_TAG", weaponTagLen, len(payload))
	}
	return WeaponTagData{
		Side:   payload[0],
		UID:    binary.LittleEndian.Uint32(payload[1:5]),
		Button: payload[5],
	}, nil
}

// ParseReloadTag decodes a RELOAD_TAG payload
func ParseReloadTag(payload []byte) (ReloadTagData, error) {
	if len(payload) != reloadTagLen {
		return ReloadTagData{}, payloadLenError("RELOAD_TAG", reloadTagLen, len(payload))
	}
	return ReloadTagData{
		UID: binary.LittleEndian.Uint32(payload),
	}, nil
}

// ParseWeaponImu decodes a WEAPON_IMU payload
func ParseWeaponImu(payload []byte) (WeaponImuData, error) {
	if len(payload) != weaponImuLen {
		return WeaponImuData{}, payloadLenError("WEAPON_IMU", weaponImuLen, len(payload))
	}
	return WeaponImuData{
		Side:    payload[0],
		Pitch:   int16(binary.LittleEndian.Uint16(payload[1:3])),
		Yaw:     int16(binary.LittleEndian.Uint16(payload[3:5])),
		Buttons: payload[5],
	}, nil
}

// ExpectedPayloadLen returns the fixed payload length for a message type,
// or -1 for unknown types.
func ExpectedPayloadLen(msgType uint8) int {
	switch msgType {
	case MsgWheelTurn:
		return wheelTurnLen
	case MsgRepairProgress:
		return repairProgressLen
	case MsgJackState:
		return jackStateLen
	case MsgWeaponTag:
		return weaponTagLen
	case MsgReloadTag:
		return reloadTagLen
	case MsgWeaponImu:
		return weaponImuLen
	default:
		return -1
	}
}

func payloadLenError(name string, expected, got int) error {
	return fmt.Errorf("%s payload length %d (expected %d)", name, got, expected)
}
