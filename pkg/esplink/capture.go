// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// captureRecord is the on-disk form of one decoded packet. Capture files
// are a plain concatenation of CBOR-encoded records.
type captureRecord struct {
	Timestamp int64  `cbor:"1,keyasint"`
	Version   uint8  `cbor:"2,keyasint"`
	Src       uint8  `cbor:"3,keyasint"`
	Type      uint8  `cbor:"4,keyasint"`
	Seq       uint16 `cbor:"5,keyasint"`
	Payload   []byte `cbor:"6,keyasint,omitempty"`
}

// CaptureWriter streams decoded packets to a capture file
type CaptureWriter struct {
	enc *cbor.Encoder
}

// NewCaptureWriter creates a capture writer on top of w
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: cbor.NewEncoder(w)}
}

// WritePacket appends one packet to the capture stream
func (cw *CaptureWriter) WritePacket(p *Packet) error {
	rec := captureRecord{
		Timestamp: p.timestamp.UnixMicro(),
		Version:   p.version,
		Src:       p.src,
		Type:      p.msgType,
		Seq:       p.seq,
		Payload:   p.payload,
	}
	if err := cw.enc.Encode(rec); err != nil {
		return fmt.Errorf("write capture record: %w", err)
	}
	return nil
}

// CaptureReader reads packets back from a capture file
type CaptureReader struct {
	dec *cbor.Decoder
}

// NewCaptureReader creates a capture reader on top of r
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{dec: cbor.NewDecoder(r)}
}

// ReadPacket reads the next packet from the capture stream.
// Returns io.EOF at the end of the file.
func (cr *CaptureReader) ReadPacket() (*Packet, error) {
	var rec captureRecord
	if err := cr.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read capture record: %w", err)
	}

	if len(rec.Payload) > MaxPayloadLen {
		return nil, fmt.Errorf("capture record payload too large: %d bytes", len(rec.Payload))
	}

	return &Packet{
		version:   rec.Version,
		src:       rec.Src,
		msgType:   rec.Type,
		seq:       rec.Seq,
		length:    uint8(len(rec.Payload)),
		payload:   rec.Payload,
		timestamp: time.UnixMicro(rec.Timestamp),
	}, nil
}
