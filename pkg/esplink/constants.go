// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

// Package esplink provides a Go implementation of the esplink serial protocol.
//
// esplink is a binary protocol used by ESP32 bench controllers to report
// hardware input events (wheel encoders, RFID tags, IMU samples) to a host
// over a serial line or a TCP/WebSocket byte bridge. This package provides
// the stream parser, frame encoding, payload decoding, validation, and
// capture-file support.
package esplink

// Protocol framing bytes
const (
	StartByte = 0xAA
	EndByte   = 0x55
)

// Frame layout
//
//	[START][VER][SRC][TYPE][SEQ_LO][SEQ_HI][LEN][PAYLOAD×LEN][CRC][END]
//
// CRC is the XOR of all bytes from VER through the last payload byte.
const (
	MaxPayloadLen = 32
	headerSize    = 7 // START plus the six header bytes
	frameOverhead = 9 // everything except the payload
)

// Parser buffer defaults
const (
	DefaultMaxBufferBytes    = 4096
	DefaultTrimToBytes       = 64
	DefaultMaxPacketsPerCall = 200
)

// Message types reported by the bench controller
const (
	MsgNone           = 0x00
	MsgWheelTurn      = 0x01
	MsgRepairProgress = 0x02
	MsgJackState      = 0x03
	MsgWeaponTag      = 0x04
	MsgReloadTag      = 0x05
	MsgWeaponImu      = 0x06
)

// Validation limits
const (
	MaxWheelIndex    = 7
	MaxSideIndex     = 1
	MaxImuDeflection = 3600 // tenths of a degree
)

// Expected payload lengths per message type
const (
	wheelTurnLen      = 2
	repairProgressLen = 2
	jackStateLen      = 1
	weaponTagLen      = 6
	reloadTagLen      = 4
	weaponImuLen      = 6
)
