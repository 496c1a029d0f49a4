// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package esplink

// CalculateCRC computes the esplink XOR checksum for the given data.
// On the wire this covers every byte from VER through the last payload byte.
func CalculateCRC(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
	}
	return crc
}
