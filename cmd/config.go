// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/benchline/benchscope/pkg/esplink"
)

// fileConfig is the config.toml key mapping for connection defaults and
// parser tuning.
type fileConfig struct {
	Port     string `toml:"port"`
	Baud     int    `toml:"baud"`
	URL      string `toml:"url"`
	Username string `toml:"username"`

	MaxBufferBytes    int `toml:"max_buffer_bytes"`
	TrimToBytes       int `toml:"trim_to_bytes"`
	MaxPacketsPerCall int `toml:"max_packets_per_call"`
}

// parserCfg holds the effective parser configuration after file overlay
var parserCfg = esplink.DefaultConfig()

// defaultConfigPath returns ~/.config/benchscope/config.toml, or empty if
// the home directory cannot be resolved.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "benchscope", "config.toml")
}

// applyFileConfig overlays config file values onto defaults. Flags set on
// the command line always win. A missing default config file is not an
// error; an explicitly passed --config that cannot be read is.
func applyFileConfig() {
	path := configPath
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath()
	}
	if path == "" {
		return
	}

	cfg, meta, err := loadFileConfig(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return
		}
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	flags := rootCmd.PersistentFlags()
	if meta.IsDefined("port") && !flags.Changed("port") {
		portName = strings.TrimSpace(cfg.Port)
	}
	if meta.IsDefined("baud") && !flags.Changed("baud") {
		baudRate = cfg.Baud
	}
	if meta.IsDefined("url") && !flags.Changed("url") {
		wsURL = strings.TrimSpace(cfg.URL)
	}
	if meta.IsDefined("username") && !flags.Changed("username") {
		wsUsername = strings.TrimSpace(cfg.Username)
	}

	if meta.IsDefined("max_buffer_bytes") {
		parserCfg.MaxBufferBytes = cfg.MaxBufferBytes
	}
	if meta.IsDefined("trim_to_bytes") {
		parserCfg.TrimToBytes = cfg.TrimToBytes
	}
	if meta.IsDefined("max_packets_per_call") {
		parserCfg.MaxPacketsPerCall = cfg.MaxPacketsPerCall
	}
}

func loadFileConfig(path string) (fileConfig, toml.MetaData, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, toml.MetaData{}, err
	}

	if meta.IsDefined("baud") && cfg.Baud <= 0 {
		return fileConfig{}, toml.MetaData{}, fmt.Errorf("%s: baud must be positive", path)
	}
	if meta.IsDefined("max_buffer_bytes") && cfg.MaxBufferBytes <= 0 {
		return fileConfig{}, toml.MetaData{}, fmt.Errorf("%s: max_buffer_bytes must be positive", path)
	}
	if meta.IsDefined("trim_to_bytes") && cfg.TrimToBytes < 0 {
		return fileConfig{}, toml.MetaData{}, fmt.Errorf("%s: trim_to_bytes must not be negative", path)
	}
	if meta.IsDefined("max_packets_per_call") && cfg.MaxPacketsPerCall <= 0 {
		return fileConfig{}, toml.MetaData{}, fmt.Errorf("%s: max_packets_per_call must be positive", path)
	}

	return cfg, meta, nil
}
