// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"os"
	"path/filepath"
)

const appName = "accounts"

// DefaultFileName is the configuration file looked up in Dir.
const DefaultFileName = "config.yaml"

// Dir returns the per-user configuration directory.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultFile returns the path of DefaultFileName in Dir when it exists,
// or "" when there is no per-user configuration file.
func DefaultFile() string {
	path := filepath.Join(Dir(), DefaultFileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}
