package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlServer represents the HTTP server configuration
type TomlServer struct {
	Port     int    `toml:"port"`
	Hostname string `toml:"hostname"`
}

// TomlDatabase represents database configuration
type TomlDatabase struct {
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

// TomlFeed tunes the feed query engine
type TomlFeed struct {
	DefaultLimit   int `toml:"default_limit"`
	MaxLimit       int `toml:"max_limit"`
	OverfetchLimit int `toml:"overfetch_limit"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Server   TomlServer   `toml:"server"`
	Database TomlDatabase `toml:"database"`
	Feed     TomlFeed     `toml:"feed"`
}

// Default returns the configuration used when no file is supplied.
func Default() *TomlConfig {
	return &TomlConfig{
		Server:   TomlServer{Port: 3000, Hostname: "localhost"},
		Database: TomlDatabase{Path: "nearcast.db", RetentionDays: 90},
		Feed:     TomlFeed{DefaultLimit: 20, MaxLimit: 50, OverfetchLimit: 200},
	}
}

func LoadConfig(path string) (*TomlConfig, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}
