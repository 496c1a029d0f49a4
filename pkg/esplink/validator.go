// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import "fmt"

// AnomalyType represents different types of packet anomalies
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyUnknownType
	AnomalyInvalidValue
)

// ValidationError represents a packet validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks packet payload structure and value plausibility.
// Returns a slice of validation errors (empty if the packet is valid).
// A packet reaching this point has already passed framing and CRC checks.
func ValidatePacket(p *Packet) []ValidationError {
	errors := []ValidationError{}

	expected := ExpectedPayloadLen(p.msgType)
	if expected < 0 {
		return append(errors, ValidationError{
			Type:    AnomalyUnknownType,
			Message: fmt.Sprintf("Unknown message type 0x%02X", p.msgType),
			Details: map[string]interface{}{"type": p.msgType},
		})
	}

	if int(p.length) != expected {
		return append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%s payload length %d (expected %d)", FormatMessageType(p.msgType), p.length, expected),
			Details: map[string]interface{}{"length": int(p.length), "expected": expected},
		})
	}

	switch p.msgType {
	case MsgWheelTurn:
		errors = append(errors, validateWheelTurn(p)...)
	case MsgWeaponTag:
		errors = append(errors, validateWeaponTag(p)...)
	case MsgWeaponImu:
		errors = append(errors, validateWeaponImu(p)...)
	}

	return errors
}

func validateWheelTurn(p *Packet) []ValidationError {
	data, err := ParseWheelTurn(p.payload)
	if err != nil {
		return nil // length already checked
	}

	var errors []ValidationError
	if data.WheelIndex > MaxWheelIndex {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Wheel index %d out of range (max %d)", data.WheelIndex, MaxWheelIndex),
			Details: map[string]interface{}{"wheel_index": data.WheelIndex, "max": MaxWheelIndex},
		})
	}
	if p.payload[1] > 1 {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Wheel direction byte 0x%02X (expected 0 or 1)", p.payload[1]),
			Details: map[string]interface{}{"direction": p.payload[1]},
		})
	}
	return errors
}

func validateWeaponTag(p *Packet) []ValidationError {
	data, err := ParseWeaponTag(p.payload)
	if err != nil {
		return nil
	}

	if data.Side > MaxSideIndex {
		return []ValidationError{{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Weapon side %d out of range (max %d)", data.Side, MaxSideIndex),
			Details: map[string]interface{}{"side": data.Side, "max": MaxSideIndex},
		}}
	}
	return nil
}

func validateWeaponImu(p *Packet) []ValidationError {
	data, err := ParseWeaponImu(p.payload)
	if err != nil {
		return nil
	}

	var errors []ValidationError
	if data.Side > MaxSideIndex {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("IMU side %d out of range (max %d)", data.Side, MaxSideIndex),
			Details: map[string]interface{}{"side": data.Side, "max": MaxSideIndex},
		})
	}
	if data.Pitch > MaxImuDeflection || data.Pitch < -MaxImuDeflection {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("IMU pitch %d out of range (±%d)", data.Pitch, MaxImuDeflection),
			Details: map[string]interface{}{"pitch": data.Pitch, "max": MaxImuDeflection},
		})
	}
	if data.Yaw > MaxImuDeflection || data.Yaw < -MaxImuDeflection {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("IMU yaw %d out of range (±%d)", data.Yaw, MaxImuDeflection),
			Details: map[string]interface{}{"yaw": data.Yaw, "max": MaxImuDeflection},
		})
	}
	return errors
}
