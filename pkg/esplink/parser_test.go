// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import (
	"bytes"
	"testing"
)

// mustFrame builds a valid wire frame or fails the test
func mustFrame(t *testing.T, version, src, msgType uint8, seq uint16, payload []byte) []byte {
	t.Helper()
	frame, err := EncodeFrame(version, src, msgType, seq, payload)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	return frame
}

func TestParser_EmptyAppend(t *testing.T) {
	p := NewParser(DefaultConfig())

	p.Append(nil)
	p.Append([]byte{})
	res := p.Parse()

	if len(res.Packets) != 0 || res.BytesDropped != 0 || res.BadEndFrames != 0 || res.CrcMismatches != 0 {
		t.Errorf("Empty append should produce empty result, got %+v", res)
	}
	if p.BufferedByteCount() != 0 {
		t.Errorf("Buffer should be empty, got %d bytes", p.BufferedByteCount())
	}
	if p.TotalBytesIn != 0 {
		t.Errorf("TotalBytesIn should be 0, got %d", p.TotalBytesIn)
	}
}

func TestParser_RoundTrip(t *testing.T) {
	p := NewParser(DefaultConfig())

	payload := []byte{0x01, 0x05, 0x00, 0x10, 0x20, 0x02}
	frame := mustFrame(t, 1, 3, MsgWeaponImu, 0xBEEF, payload)

	res := p.IngestAndParse(frame)

	if len(res.Packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(res.Packets))
	}
	pkt := res.Packets[0]
	if pkt.Version() != 1 {
		t.Errorf("Version mismatch: expected 1, got %d", pkt.Version())
	}
	if pkt.Source() != 3 {
		t.Errorf("Source mismatch: expected 3, got %d", pkt.Source())
	}
	if pkt.Type() != MsgWeaponImu {
		t.Errorf("Type mismatch: expected 0x%02X, got 0x%02X", MsgWeaponImu, pkt.Type())
	}
	if pkt.Seq() != 0xBEEF {
		t.Errorf("Seq mismatch: expected 0xBEEF, got 0x%04X", pkt.Seq())
	}
	if !bytes.Equal(pkt.Payload(), payload) {
		t.Errorf("Payload mismatch: expected % X, got % X", payload, pkt.Payload())
	}
	if res.BytesDropped != 0 {
		t.Errorf("Expected no dropped bytes, got %d", res.BytesDropped)
	}
	if p.BufferedByteCount() != 0 {
		t.Errorf("Buffer should be empty after consuming a full frame, got %d", p.BufferedByteCount())
	}
}

func TestParser_EmptyPayloadFrame(t *testing.T) {
	p := NewParser(DefaultConfig())

	frame := mustFrame(t, 1, 0, MsgNone, 0, nil)
	if len(frame) != 9 {
		t.Fatalf("Zero-payload frame should be 9 bytes, got %d", len(frame))
	}

	res := p.IngestAndParse(frame)
	if len(res.Packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(res.Packets))
	}
	if res.Packets[0].Length() != 0 {
		t.Errorf("Expected zero-length payload, got %d", res.Packets[0].Length())
	}
}

func TestParser_FrameAfterLeadingJunk(t *testing.T) {
	p := NewParser(DefaultConfig())

	// 3 junk bytes, then VER=1 SRC=2 TYPE=3 SEQ=0x0102 LEN=2 PAYLOAD=[AB CD]
	frame := mustFrame(t, 1, 2, 3, 0x0102, []byte{0xAB, 0xCD})
	input := append([]byte{0x12, 0x34, 0x56}, frame...)

	res := p.IngestAndParse(input)

	if len(res.Packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(res.Packets))
	}
	pkt := res.Packets[0]
	if pkt.Seq() != 258 {
		t.Errorf("Seq mismatch: expected 258, got %d", pkt.Seq())
	}
	if !bytes.Equal(pkt.Payload(), []byte{0xAB, 0xCD}) {
		t.Errorf("Payload mismatch: got % X", pkt.Payload())
	}
	if res.BytesDropped != 3 {
		t.Errorf("Expected 3 dropped bytes, got %d", res.BytesDropped)
	}
}

func TestParser_AllJunkInput(t *testing.T) {
	p := NewParser(DefaultConfig())

	junk := make([]byte, 300)
	for i := range junk {
		junk[i] = byte(i % 0xAA) // never 0xAA
	}

	res := p.IngestAndParse(junk)

	if len(res.Packets) != 0 {
		t.Errorf("Expected 0 packets, got %d", len(res.Packets))
	}
	if res.BytesDropped != len(junk) {
		t.Errorf("Expected %d dropped bytes, got %d", len(junk), res.BytesDropped)
	}
	if p.BufferedByteCount() != 0 {
		t.Errorf("Buffer should be cleared, got %d bytes", p.BufferedByteCount())
	}
}

func TestParser_SplitFrameReassembly(t *testing.T) {
	payload := []byte{0x00, 0x11, 0x22, 0x33}
	frame := mustFrame(t, 1, 7, MsgReloadTag, 42, payload)

	// Split at every possible boundary, including mid-header and mid-payload
	for split := 1; split < len(frame); split++ {
		p := NewParser(DefaultConfig())

		res := p.IngestAndParse(frame[:split])
		if len(res.Packets) != 0 {
			t.Fatalf("Split %d: packet decoded from partial frame", split)
		}
		if res.BytesDropped != 0 {
			t.Fatalf("Split %d: partial frame dropped %d bytes", split, res.BytesDropped)
		}

		res = p.IngestAndParse(frame[split:])
		if len(res.Packets) != 1 {
			t.Fatalf("Split %d: expected 1 packet after second chunk, got %d", split, len(res.Packets))
		}
		if !bytes.Equal(res.Packets[0].Payload(), payload) {
			t.Fatalf("Split %d: payload mismatch", split)
		}
		if p.BufferedByteCount() != 0 {
			t.Fatalf("Split %d: buffer not empty after decode", split)
		}
	}
}

func TestParser_ThreeWaySplit(t *testing.T) {
	p := NewParser(DefaultConfig())
	frame := mustFrame(t, 1, 0, MsgJackState, 9, []byte{0x02})

	p.Append(frame[:3])
	p.Append(frame[3:6])
	if res := p.Parse(); len(res.Packets) != 0 {
		t.Fatal("Decoded packet before final chunk arrived")
	}
	p.Append(frame[6:])

	res := p.Parse()
	if len(res.Packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(res.Packets))
	}
}

func TestParser_BadEndMarkerResync(t *testing.T) {
	p := NewParser(DefaultConfig())

	bad := mustFrame(t, 1, 1, MsgJackState, 1, []byte{0x01})
	bad[len(bad)-1] = 0x99 // corrupt END
	good := mustFrame(t, 1, 1, MsgJackState, 2, []byte{0x02})

	res := p.IngestAndParse(append(bad, good...))

	if res.BadEndFrames != 1 {
		t.Errorf("Expected exactly 1 bad end frame, got %d", res.BadEndFrames)
	}
	if len(res.Packets) != 1 {
		t.Fatalf("Expected the trailing valid frame to survive, got %d packets", len(res.Packets))
	}
	if res.Packets[0].Seq() != 2 {
		t.Errorf("Wrong packet survived: seq %d", res.Packets[0].Seq())
	}
	// The whole corrupted frame is eventually consumed byte by byte
	if res.BytesDropped != len(bad) {
		t.Errorf("Expected %d dropped bytes, got %d", len(bad), res.BytesDropped)
	}
}

func TestParser_CrcMismatchResync(t *testing.T) {
	p := NewParser(DefaultConfig())

	bad := mustFrame(t, 1, 1, MsgWheelTurn, 5, []byte{0x00, 0x01})
	bad[len(bad)-2] ^= 0xFF // corrupt CRC
	good := mustFrame(t, 1, 1, MsgWheelTurn, 6, []byte{0x01, 0x00})

	res := p.IngestAndParse(append(bad, good...))

	if res.CrcMismatches != 1 {
		t.Errorf("Expected exactly 1 CRC mismatch, got %d", res.CrcMismatches)
	}
	if len(res.Packets) != 1 {
		t.Fatalf("Expected the trailing valid frame to survive, got %d packets", len(res.Packets))
	}
	if res.Packets[0].Seq() != 6 {
		t.Errorf("Wrong packet survived: seq %d", res.Packets[0].Seq())
	}
}

func TestParser_ValidFrameEmbeddedInRejectedSpan(t *testing.T) {
	p := NewParser(DefaultConfig())

	// A false start marker directly followed by a real frame. The false
	// candidate fails its END check; single-byte resync must still find
	// the real frame one byte later.
	good := mustFrame(t, 1, 2, MsgJackState, 77, []byte{0x01})
	input := append([]byte{StartByte}, good...)

	res := p.IngestAndParse(input)

	if len(res.Packets) != 1 {
		t.Fatalf("Expected embedded valid frame to decode, got %d packets", len(res.Packets))
	}
	if res.Packets[0].Seq() != 77 {
		t.Errorf("Wrong packet: seq %d", res.Packets[0].Seq())
	}
	if res.BytesDropped != 1 {
		t.Errorf("Expected exactly 1 dropped byte, got %d", res.BytesDropped)
	}
}

func TestParser_OversizedLengthSkipsOneByte(t *testing.T) {
	p := NewParser(DefaultConfig())

	// Start marker with LEN=200 is noise, not a truncated frame
	noise := []byte{StartByte, 0x01, 0x02, 0x03, 0x04, 0x05, 200}
	good := mustFrame(t, 1, 1, MsgRepairProgress, 3, []byte{0x10, 0x27})

	res := p.IngestAndParse(append(noise, good...))

	if len(res.Packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(res.Packets))
	}
	if res.BadEndFrames != 0 {
		t.Errorf("Oversized LEN should not count as bad end frame, got %d", res.BadEndFrames)
	}
	// All 7 noise bytes end up dropped: 1 for the bad candidate, 6 as junk
	// before the real start marker.
	if res.BytesDropped != len(noise) {
		t.Errorf("Expected %d dropped bytes, got %d", len(noise), res.BytesDropped)
	}
}

func TestParser_OversizedLengthWithPendingTail(t *testing.T) {
	p := NewParser(DefaultConfig())

	// LEN=255 would imply a 264-byte frame; only the 7-byte header is
	// present. The parser must not wait for more data, it must resync.
	p.Append([]byte{StartByte, 0x01, 0x02, 0x03, 0x04, 0x05, 0xFF})
	res := p.Parse()

	if len(res.Packets) != 0 {
		t.Fatalf("Expected no packets, got %d", len(res.Packets))
	}
	if res.BytesDropped != 7 {
		t.Errorf("Expected all 7 bytes dropped after resync, got %d", res.BytesDropped)
	}
	if p.BufferedByteCount() != 0 {
		t.Errorf("Buffer should be empty, got %d bytes", p.BufferedByteCount())
	}
}

func TestParser_PartialHeaderWaits(t *testing.T) {
	p := NewParser(DefaultConfig())

	p.Append([]byte{StartByte, 0x01, 0x02})
	res := p.Parse()

	if len(res.Packets) != 0 || res.BytesDropped != 0 {
		t.Errorf("Partial header should wait, got %+v", res)
	}
	if p.BufferedByteCount() != 3 {
		t.Errorf("Partial start must stay buffered, got %d bytes", p.BufferedByteCount())
	}
}

func TestParser_JunkBeforePartialFrameCompacts(t *testing.T) {
	p := NewParser(DefaultConfig())

	frame := mustFrame(t, 1, 1, MsgWeaponTag, 1, []byte{0, 1, 2, 3, 4, 5})
	input := append([]byte{0xDE, 0xAD}, frame[:5]...)

	res := p.IngestAndParse(input)

	if res.BytesDropped != 2 {
		t.Errorf("Expected 2 junk bytes dropped, got %d", res.BytesDropped)
	}
	if p.BufferedByteCount() != 5 {
		t.Errorf("Partial frame should remain buffered at front, got %d bytes", p.BufferedByteCount())
	}

	// Parse again with no new data: idempotent
	res = p.Parse()
	if len(res.Packets) != 0 || res.BytesDropped != 0 {
		t.Errorf("Repeat parse should be a no-op, got %+v", res)
	}

	// Deliver the rest
	res = p.IngestAndParse(frame[5:])
	if len(res.Packets) != 1 {
		t.Fatalf("Expected 1 packet after completion, got %d", len(res.Packets))
	}
}

func TestParser_BackToBackFrames(t *testing.T) {
	p := NewParser(DefaultConfig())

	var input []byte
	for i := 0; i < 5; i++ {
		input = append(input, mustFrame(t, 1, 1, MsgJackState, uint16(i), []byte{byte(i)})...)
	}

	res := p.IngestAndParse(input)

	if len(res.Packets) != 5 {
		t.Fatalf("Expected 5 packets, got %d", len(res.Packets))
	}
	for i, pkt := range res.Packets {
		if pkt.Seq() != uint16(i) {
			t.Errorf("Packet %d out of order: seq %d", i, pkt.Seq())
		}
	}
}

func TestParser_MaxPacketsPerCall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPacketsPerCall = 3
	cfg.MaxBufferBytes = 65536
	p := NewParser(cfg)

	var input []byte
	for i := 0; i < 10; i++ {
		input = append(input, mustFrame(t, 1, 1, MsgJackState, uint16(i), []byte{0x01})...)
	}

	res := p.IngestAndParse(input)
	if len(res.Packets) != 3 {
		t.Fatalf("Expected cap of 3 packets, got %d", len(res.Packets))
	}
	if res.Packets[2].Seq() != 2 {
		t.Errorf("Packets out of stream order: seq %d", res.Packets[2].Seq())
	}

	// Remainder stays buffered for the next call
	res = p.Parse()
	if len(res.Packets) != 3 {
		t.Fatalf("Second call expected 3 more packets, got %d", len(res.Packets))
	}
	if res.Packets[0].Seq() != 3 {
		t.Errorf("Second call resumed at wrong frame: seq %d", res.Packets[0].Seq())
	}

	res = p.Parse()
	res2 := p.Parse()
	total := len(res.Packets) + len(res2.Packets)
	if total != 4 {
		t.Errorf("Expected 4 remaining packets across calls, got %d", total)
	}
	if p.BufferedByteCount() != 0 {
		t.Errorf("Buffer should be empty once all frames are drained, got %d", p.BufferedByteCount())
	}
}

func TestParser_BufferEviction(t *testing.T) {
	cfg := Config{MaxBufferBytes: 256, TrimToBytes: 64, MaxPacketsPerCall: 200}
	p := NewParser(cfg)

	junk := make([]byte, 1000)
	for i := range junk {
		junk[i] = 0x42
	}
	p.Append(junk)

	if p.BufferedByteCount() > cfg.TrimToBytes {
		t.Errorf("Buffer should be trimmed to %d bytes, got %d", cfg.TrimToBytes, p.BufferedByteCount())
	}
	if p.TotalBytesDropped != uint64(len(junk)-cfg.TrimToBytes) {
		t.Errorf("Eviction drop count wrong: %d", p.TotalBytesDropped)
	}
	if p.TotalBytesIn != uint64(len(junk)) {
		t.Errorf("TotalBytesIn should count everything appended, got %d", p.TotalBytesIn)
	}
}

func TestParser_BufferEvictionClearsWhenTrimZero(t *testing.T) {
	cfg := Config{MaxBufferBytes: 128, TrimToBytes: 0, MaxPacketsPerCall: 200}
	p := NewParser(cfg)

	p.Append(make([]byte, 500))

	if p.BufferedByteCount() != 0 {
		t.Errorf("TrimToBytes=0 should clear the buffer, got %d bytes", p.BufferedByteCount())
	}
	if p.TotalBytesDropped != 500 {
		t.Errorf("Expected 500 dropped bytes, got %d", p.TotalBytesDropped)
	}
}

func TestParser_EvictionPreservesFrameTail(t *testing.T) {
	cfg := Config{MaxBufferBytes: 64, TrimToBytes: 32, MaxPacketsPerCall: 200}
	p := NewParser(cfg)

	// A burst of junk followed by a valid frame inside the kept tail
	frame := mustFrame(t, 1, 4, MsgJackState, 11, []byte{0x03})
	input := append(make([]byte, 100), frame...)
	p.Append(input)

	res := p.Parse()
	if len(res.Packets) != 1 {
		t.Fatalf("Frame in trimmed tail should decode, got %d packets", len(res.Packets))
	}
	if res.Packets[0].Seq() != 11 {
		t.Errorf("Wrong packet: seq %d", res.Packets[0].Seq())
	}
}

func TestParser_ResetBufferKeepsStatistics(t *testing.T) {
	p := NewParser(DefaultConfig())

	p.IngestAndParse(mustFrame(t, 1, 1, MsgJackState, 1, []byte{0x01}))
	p.Append([]byte{StartByte, 0x01})

	p.ResetBuffer()

	if p.BufferedByteCount() != 0 {
		t.Error("ResetBuffer should empty the buffer")
	}
	if p.TotalPacketsDecoded != 1 {
		t.Errorf("ResetBuffer must not touch statistics, TotalPacketsDecoded=%d", p.TotalPacketsDecoded)
	}
}

func TestParser_ResetStatisticsKeepsBuffer(t *testing.T) {
	p := NewParser(DefaultConfig())

	p.IngestAndParse(mustFrame(t, 1, 1, MsgJackState, 1, []byte{0x01}))
	p.Append([]byte{StartByte, 0x01})

	p.ResetStatistics()

	if p.TotalBytesIn != 0 || p.TotalPacketsDecoded != 0 || p.TotalBytesDropped != 0 ||
		p.TotalBadEndFrames != 0 || p.TotalCrcMismatches != 0 {
		t.Error("ResetStatistics should zero all counters")
	}
	if p.BufferedByteCount() != 2 {
		t.Errorf("ResetStatistics must not touch the buffer, got %d bytes", p.BufferedByteCount())
	}
}

func TestParser_CumulativeStatistics(t *testing.T) {
	p := NewParser(DefaultConfig())

	bad := mustFrame(t, 1, 1, MsgJackState, 1, []byte{0x01})
	bad[len(bad)-2] ^= 0x55 // corrupt CRC
	p.IngestAndParse(bad)
	p.IngestAndParse(mustFrame(t, 1, 1, MsgJackState, 2, []byte{0x01}))
	p.IngestAndParse([]byte{0x00, 0x01, 0x02})

	if p.TotalPacketsDecoded != 1 {
		t.Errorf("TotalPacketsDecoded = %d, want 1", p.TotalPacketsDecoded)
	}
	if p.TotalCrcMismatches != 1 {
		t.Errorf("TotalCrcMismatches = %d, want 1", p.TotalCrcMismatches)
	}
	if p.TotalBytesDropped != uint64(len(bad)+3) {
		t.Errorf("TotalBytesDropped = %d, want %d", p.TotalBytesDropped, len(bad)+3)
	}
}

// recordingObserver collects observer callbacks for verification
type recordingObserver struct {
	packets      []*Packet
	droppedBytes int
	badEndFrames int
	crcEvents    [][2]byte
}

func (o *recordingObserver) OnPacketDecoded(p *Packet)       { o.packets = append(o.packets, p) }
func (o *recordingObserver) OnBytesDropped(count int)        { o.droppedBytes += count }
func (o *recordingObserver) OnBadEndFrame()                  { o.badEndFrames++ }
func (o *recordingObserver) OnCrcMismatch(expected, actual byte) {
	o.crcEvents = append(o.crcEvents, [2]byte{expected, actual})
}

func TestParser_ObserverCallbacks(t *testing.T) {
	p := NewParser(DefaultConfig())
	obs := &recordingObserver{}
	p.SetObserver(obs)

	bad := mustFrame(t, 1, 1, MsgJackState, 1, []byte{0x01})
	goodCRC := bad[len(bad)-2]
	bad[len(bad)-2] = goodCRC ^ 0x0F
	good := mustFrame(t, 1, 1, MsgJackState, 2, []byte{0x01})

	input := append([]byte{0x11, 0x22}, bad...)
	input = append(input, good...)
	p.IngestAndParse(input)

	if len(obs.packets) != 1 {
		t.Fatalf("Observer saw %d packets, want 1", len(obs.packets))
	}
	if obs.packets[0].Seq() != 2 {
		t.Errorf("Observer packet seq %d, want 2", obs.packets[0].Seq())
	}
	if len(obs.crcEvents) != 1 {
		t.Fatalf("Observer saw %d CRC events, want 1", len(obs.crcEvents))
	}
	if obs.crcEvents[0][0] != goodCRC || obs.crcEvents[0][1] != goodCRC^0x0F {
		t.Errorf("CRC event expected/actual = %02X/%02X", obs.crcEvents[0][0], obs.crcEvents[0][1])
	}
	// 2 junk bytes plus the corrupted frame consumed one byte at a time
	if obs.droppedBytes != 2+len(bad) {
		t.Errorf("Observer dropped bytes = %d, want %d", obs.droppedBytes, 2+len(bad))
	}
}

func TestParser_NoStartMarkerAfterPackets(t *testing.T) {
	p := NewParser(DefaultConfig())

	input := mustFrame(t, 1, 1, MsgJackState, 1, []byte{0x01})
	input = append(input, 0x01, 0x02, 0x03, 0x04)

	res := p.IngestAndParse(input)
	if len(res.Packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(res.Packets))
	}
	if res.BytesDropped != 4 {
		t.Errorf("Trailing junk should be dropped, got %d", res.BytesDropped)
	}
	if p.BufferedByteCount() != 0 {
		t.Errorf("Buffer should be cleared, got %d bytes", p.BufferedByteCount())
	}
}
