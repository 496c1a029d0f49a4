// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems
//
// Benchscope - Esplink Bench Controller Protocol Analyzer
//
// A CLI tool for monitoring, validating, and capturing esplink packets
// from ESP32 bench controllers over serial or WebSocket links.

package main

import (
	"os"

	"github.com/benchline/benchscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
