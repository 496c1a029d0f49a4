// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

import (
	"fmt"
	"time"
)

// Statistics tracks link quality and error rates across parse calls
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalPackets     uint64
	ValidPackets     uint64
	BytesDropped     uint64
	BadEndFrames     uint64
	CrcMismatches    uint64
	LengthMismatches uint64
	UnknownTypes     uint64
	AnomalousValues  uint64

	// Rates (calculated)
	PacketRate float64 // packets/sec
	ErrorRate  float64 // resync + anomaly events/sec
	DropRate   float64 // bytes/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// RecordResult folds the counters from one Parse call into the totals.
// Packet-level validation is recorded separately via RecordPacket.
func (s *Statistics) RecordResult(res ParseResult) {
	s.BytesDropped += uint64(res.BytesDropped)
	s.BadEndFrames += uint64(res.BadEndFrames)
	s.CrcMismatches += uint64(res.CrcMismatches)
	s.LastUpdateTime = time.Now()
}

// RecordPacket records a decoded packet and its validation outcome
func (s *Statistics) RecordPacket(p *Packet, validationErrors []ValidationError) {
	s.TotalPackets++

	if len(validationErrors) == 0 {
		s.ValidPackets++
	} else {
		for _, err := range validationErrors {
			switch err.Type {
			case AnomalyLengthMismatch:
				s.LengthMismatches++
			case AnomalyUnknownType:
				s.UnknownTypes++
			case AnomalyInvalidValue:
				s.AnomalousValues++
			}
		}
	}

	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates packet, error, and drop rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.PacketRate = float64(s.TotalPackets) / elapsed
		errorCount := s.BadEndFrames + s.CrcMismatches + s.LengthMismatches + s.UnknownTypes + s.AnomalousValues
		s.ErrorRate = float64(errorCount) / elapsed
		s.DropRate = float64(s.BytesDropped) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent float64
	if s.TotalPackets > 0 {
		validPercent = float64(s.ValidPackets) * 100.0 / float64(s.TotalPackets)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Link Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Packets:   %8d\n", s.TotalPackets)
	result += fmt.Sprintf("Valid Packets:   %8d (%.1f%%)\n", s.ValidPackets, validPercent)

	if s.BytesDropped > 0 {
		result += fmt.Sprintf("Bytes Dropped:   %8d\n", s.BytesDropped)
	}
	if s.BadEndFrames > 0 {
		result += fmt.Sprintf("Bad End Frames:  %8d\n", s.BadEndFrames)
	}
	if s.CrcMismatches > 0 {
		result += fmt.Sprintf("CRC Mismatches:  %8d\n", s.CrcMismatches)
	}
	if s.LengthMismatches > 0 {
		result += fmt.Sprintf("Length Mismatch: %8d\n", s.LengthMismatches)
	}
	if s.UnknownTypes > 0 {
		result += fmt.Sprintf("Unknown Types:   %8d\n", s.UnknownTypes)
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d\n", s.AnomalousValues)
	}

	result += fmt.Sprintf("Packet Rate:     %8.1f pkts/sec\n", s.PacketRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += fmt.Sprintf("Drop Rate:       %8.1f bytes/sec\n", s.DropRate)
	result += "==================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalPackets = 0
	s.ValidPackets = 0
	s.BytesDropped = 0
	s.BadEndFrames = 0
	s.CrcMismatches = 0
	s.LengthMismatches = 0
	s.UnknownTypes = 0
	s.AnomalousValues = 0
	s.PacketRate = 0
	s.ErrorRate = 0
	s.DropRate = 0
}
