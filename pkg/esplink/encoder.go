package esplink

import "fmt"

// EncodeFrame builds a complete wire frame from packet fields.
// The CRC is computed over the header and payload bytes; SEQ is written
// little-endian.
func EncodeFrame(version, src, msgType uint8, seq uint16, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadLen)
	}

	frame := make([]byte, 0, frameOverhead+len(payload))
	frame = append(frame, StartByte, version, src, msgType, byte(seq), byte(seq>>8), uint8(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, CalculateCRC(frame[1:]))
	frame = append(frame, EndByte)

	return frame, nil
}

// EncodePacket encodes an existing Packet back to wire format
func EncodePacket(p *Packet) ([]byte, error) {
	return EncodeFrame(p.version, p.src, p.msgType, p.seq, p.payload)
}
