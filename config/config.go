// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads node settings from a key=value file and offering
// templates from YAML.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the settings of a ledger process.
type Config struct {
	DataDir     string // checkpoint database and offering templates
	Mode        string // production or development; selects the log encoder
	LogLevel    string
	LogFile     string // empty logs to stderr
	MetricsAddr string // empty disables the metrics endpoint
}

// Run modes.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

const configFileName = "config"

// DefaultDataDir returns ~/.librbf, or .librbf when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".librbf"
	}
	return filepath.Join(home, ".librbf")
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		Mode:        ModeProduction,
		LogLevel:    "info",
		MetricsAddr: ":9464",
	}
}

// Development reports whether cfg runs in development mode.
func (c Config) Development() bool { return c.Mode == ModeDevelopment }

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// DBPath returns the checkpoint database path inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "librbf.db")
}

// LoadConfig reads a key=value config file. Keys missing from the file keep
// their defaults; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", err, lineNo, line)
		}
		switch key {
		case "datadir":
			cfg.DataDir = value
		case "mode":
			cfg.Mode = value
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		case "metrics":
			cfg.MetricsAddr = value
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits a line on its first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# librbf configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "mode = %s\n", cfg.Mode)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	fmt.Fprintf(&b, "metrics = %s\n", cfg.MetricsAddr)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
