// Package config loads ayaflow's configuration from defaults, an optional
// YAML file, and CLI flags, in that precedence order (CLI wins).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full set of keys from spec.md §6.
type Config struct {
	Interface                string   `yaml:"interface"`
	Port                     uint16   `yaml:"port"`
	DBPath                   string   `yaml:"db_path"`
	ConnectionTimeoutSeconds uint64   `yaml:"connection_timeout"`
	Quiet                    bool     `yaml:"quiet"`
	DataRetentionSeconds     *uint64  `yaml:"data_retention_seconds"`
	AggregationWindowSeconds uint64   `yaml:"aggregation_window_seconds"`
	ResolveDNS               bool     `yaml:"resolve_dns"`
	AllowedIPs               []string `yaml:"allowed_ips"`
}

// Default returns the built-in defaults from spec.md §6.
func Default() Config {
	return Config{
		Interface:                "eth0",
		Port:                     3000,
		DBPath:                   "traffic.db",
		ConnectionTimeoutSeconds: 60,
		Quiet:                    false,
		DataRetentionSeconds:     nil, // unset = keep forever
		AggregationWindowSeconds: 0,   // raw mode
		ResolveDNS:               false,
		AllowedIPs:               nil,
	}
}

// LoadFile reads a YAML config file on top of Default(), returning the
// merged result. Keys absent from the file keep their default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
