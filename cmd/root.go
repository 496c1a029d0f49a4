// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Config file override
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "benchscope",
	Short: "Esplink Bench Controller Protocol Analyzer",
	Long: `Benchscope - A CLI tool for monitoring and analyzing esplink packets from
ESP32 bench controllers.

Provides commands for live packet watching, link quality statistics, packet
capture and replay, and test frame generation to help diagnose communication
issues on the controller link.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the ESPLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Defaults can be placed in ~/.config/benchscope/config.toml and overridden
per-invocation with flags.`,
	Version: "1.2.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.config/benchscope/config.toml)")

	cobra.OnInitialize(applyFileConfig)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
