// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import "time"

// Packet represents a decoded esplink protocol packet
type Packet struct {
	version   uint8
	src       uint8
	msgType   uint8
	seq       uint16
	length    uint8
	payload   []byte
	timestamp time.Time
}

// NewPacket creates a new packet with the given fields
func NewPacket(version, src, msgType uint8, seq uint16, payload []byte) *Packet {
	return &Packet{
		version:   version,
		src:       src,
		msgType:   msgType,
		seq:       seq,
		length:    uint8(len(payload)),
		payload:   payload,
		timestamp: time.Now(),
	}
}

// Version returns the protocol version byte
func (p *Packet) Version() uint8 {
	return p.version
}

// Source returns the source identifier of the sending controller
func (p *Packet) Source() uint8 {
	return p.src
}

// Type returns the packet's message type
func (p *Packet) Type() uint8 {
	return p.msgType
}

// Seq returns the packet's sequence number
func (p *Packet) Seq() uint16 {
	return p.seq
}

// Length returns the packet's payload length
func (p *Packet) Length() uint8 {
	return p.length
}

// Payload returns the packet's payload bytes
func (p *Packet) Payload() []byte {
	return p.payload
}

// Timestamp returns the packet's decode timestamp
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}
