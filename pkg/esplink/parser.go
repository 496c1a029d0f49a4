// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Config holds the parser's buffering limits.
// MaxPayloadLen is a protocol constant, not a tunable.
type Config struct {
	// MaxBufferBytes is the buffered-byte limit enforced after each Append.
	MaxBufferBytes int

	// TrimToBytes is how many trailing bytes survive an over-limit trim.
	// Zero or negative means the buffer is cleared entirely instead.
	TrimToBytes int

	// MaxPacketsPerCall bounds a single Parse call so adversarial input
	// cannot stall the caller.
	MaxPacketsPerCall int
}

// DefaultConfig returns the standard parser configuration
func DefaultConfig() Config {
	return Config{
		MaxBufferBytes:    DefaultMaxBufferBytes,
		TrimToBytes:       DefaultTrimToBytes,
		MaxPacketsPerCall: DefaultMaxPacketsPerCall,
	}
}

// Observer receives synchronous notifications during Append and Parse.
// All methods are called from the goroutine driving the parser; an
// implementation must not call back into the parser.
type Observer interface {
	OnPacketDecoded(p *Packet)
	OnBytesDropped(count int)
	OnBadEndFrame()
	OnCrcMismatch(expected, actual byte)
}

// ParseResult holds the packets and error counts from a single Parse call
type ParseResult struct {
	Packets       []*Packet
	BytesDropped  int
	BadEndFrames  int
	CrcMismatches int
}

// Parser reassembles esplink frames from an arbitrarily chunked byte stream.
//
// Bytes arrive via Append in whatever fragments the transport delivers;
// Parse scans the accumulated buffer for complete frames, resynchronizing
// one byte at a time past corrupted data. Malformed input is never an
// error, only a counted event.
//
// A Parser is not safe for concurrent use. The expected discipline is a
// single goroutine calling Append and Parse in alternation.
type Parser struct {
	cfg      Config
	buffer   []byte
	observer Observer

	// Cumulative statistics, reset only by ResetStatistics
	TotalBytesIn        uint64
	TotalPacketsDecoded uint64
	TotalBytesDropped   uint64
	TotalBadEndFrames   uint64
	TotalCrcMismatches  uint64
}

// NewParser creates a parser with the given configuration.
// Non-positive MaxBufferBytes or MaxPacketsPerCall fall back to defaults;
// TrimToBytes is taken as given since zero is meaningful (clear on trim).
func NewParser(cfg Config) *Parser {
	if cfg.MaxBufferBytes <= 0 {
		cfg.MaxBufferBytes = DefaultMaxBufferBytes
	}
	if cfg.MaxPacketsPerCall <= 0 {
		cfg.MaxPacketsPerCall = DefaultMaxPacketsPerCall
	}
	return &Parser{
		cfg:    cfg,
		buffer: make([]byte, 0, 1024),
	}
}

// SetObserver installs an observer for decode events. Pass nil to remove.
func (p *Parser) SetObserver(o Observer) {
	p.observer = o
}

// Append adds incoming bytes to the internal buffer and enforces the
// buffer limit. Appending an empty slice is a no-op. Never fails.
func (p *Parser) Append(data []byte) {
	if len(data) == 0 {
		return
	}
	p.buffer = append(p.buffer, data...)
	p.TotalBytesIn += uint64(len(data))
	p.enforceBufferLimits()
}

// Parse scans the buffered data and extracts every complete valid frame,
// up to MaxPacketsPerCall. Packets are returned in stream order. Junk
// bytes, bad end markers, and CRC failures are dropped and counted; a
// candidate frame that fails validation costs exactly one byte, so a real
// start marker hiding inside the rejected span is never skipped.
func (p *Parser) Parse() ParseResult {
	var res ParseResult
	readIndex := 0

	for len(res.Packets) < p.cfg.MaxPacketsPerCall {
		// Find the next start marker
		rel := bytes.IndexByte(p.buffer[readIndex:], StartByte)
		if rel < 0 {
			// No start marker - everything remaining is junk
			if junk := len(p.buffer) - readIndex; junk > 0 {
				p.drop(&res, junk)
			}
			p.buffer = p.buffer[:0]
			readIndex = 0
			break
		}
		if rel > 0 {
			p.drop(&res, rel)
			readIndex += rel
		}

		avail := len(p.buffer) - readIndex
		if avail < headerSize {
			// Partial header - wait for more data
			break
		}

		length := int(p.buffer[readIndex+6])
		if length > MaxPayloadLen {
			// Oversized LEN means the start marker was noise, not a
			// truncated frame. Skip one byte and rescan.
			p.drop(&res, 1)
			readIndex++
			continue
		}

		frameSize := frameOverhead + length
		if avail < frameSize {
			// Partial frame - wait for more data
			break
		}

		if p.buffer[readIndex+8+length] != EndByte {
			res.BadEndFrames++
			p.TotalBadEndFrames++
			if p.observer != nil {
				p.observer.OnBadEndFrame()
			}
			p.drop(&res, 1)
			readIndex++
			continue
		}

		expected := CalculateCRC(p.buffer[readIndex+1 : readIndex+7+length])
		actual := p.buffer[readIndex+7+length]
		if expected != actual {
			res.CrcMismatches++
			p.TotalCrcMismatches++
			if p.observer != nil {
				p.observer.OnCrcMismatch(expected, actual)
			}
			p.drop(&res, 1)
			readIndex++
			continue
		}

		pkt := p.decodePacketAt(readIndex)
		res.Packets = append(res.Packets, pkt)
		p.TotalPacketsDecoded++
		if p.observer != nil {
			p.observer.OnPacketDecoded(pkt)
		}
		readIndex += frameSize
	}

	// Compact: discard everything before the final read position
	if readIndex > 0 {
		if readIndex >= len(p.buffer) {
			p.buffer = p.buffer[:0]
		} else {
			n := copy(p.buffer, p.buffer[readIndex:])
			p.buffer = p.buffer[:n]
		}
	}

	return res
}

// IngestAndParse appends bytes and immediately parses (convenience method)
func (p *Parser) IngestAndParse(data []byte) ParseResult {
	p.Append(data)
	return p.Parse()
}

// ResetBuffer clears the internal buffer without touching statistics
func (p *Parser) ResetBuffer() {
	p.buffer = p.buffer[:0]
}

// ResetStatistics zeroes all cumulative counters without touching the buffer
func (p *Parser) ResetStatistics() {
	p.TotalBytesIn = 0
	p.TotalPacketsDecoded = 0
	p.TotalBytesDropped = 0
	p.TotalBadEndFrames = 0
	p.TotalCrcMismatches = 0
}

// BufferedByteCount returns the current number of buffered bytes
func (p *Parser) BufferedByteCount() int {
	return len(p.buffer)
}

func (p *Parser) drop(res *ParseResult, n int) {
	res.BytesDropped += n
	p.TotalBytesDropped += uint64(n)
	if p.observer != nil {
		p.observer.OnBytesDropped(n)
	}
}

// decodePacketAt reads one frame at the given offset. The caller has
// already verified length, end marker, and CRC.
func (p *Parser) decodePacketAt(offset int) *Packet {
	length := p.buffer[offset+6]
	payload := make([]byte, length)
	copy(payload, p.buffer[offset+7:offset+7+int(length)])

	return &Packet{
		version:   p.buffer[offset+1],
		src:       p.buffer[offset+2],
		msgType:   p.buffer[offset+3],
		seq:       binary.LittleEndian.Uint16(p.buffer[offset+4 : offset+6]),
		length:    length,
		payload:   payload,
		timestamp: time.Now(),
	}
}

// enforceBufferLimits trims the buffer when it exceeds MaxBufferBytes,
// keeping the most recent TrimToBytes bytes (or clearing entirely).
// Returns the number of bytes removed.
func (p *Parser) enforceBufferLimits() int {
	if len(p.buffer) <= p.cfg.MaxBufferBytes {
		return 0
	}

	var trimmed int
	if p.cfg.TrimToBytes > 0 && p.cfg.TrimToBytes < len(p.buffer) {
		trimmed = len(p.buffer) - p.cfg.TrimToBytes
		n := copy(p.buffer, p.buffer[trimmed:])
		p.buffer = p.buffer[:n]
	} else {
		trimmed = len(p.buffer)
		p.buffer = p.buffer[:0]
	}

	p.TotalBytesDropped += uint64(trimmed)
	if p.observer != nil {
		p.observer.OnBytesDropped(trimmed)
	}
	return trimmed
}
