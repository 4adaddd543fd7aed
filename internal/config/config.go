package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the generator configuration.
type Config struct {
	Seed      int64  `json:"seed" yaml:"seed"`
	Dimension string `json:"dimension" yaml:"dimension"` // "overworld", "nether" or "end"
	Generator string `json:"generator" yaml:"generator"` // "noise" or "flat"
	CenterX   int    `json:"center_x" yaml:"center_x"`   // chunk coordinates
	CenterZ   int    `json:"center_z" yaml:"center_z"`
	Radius    int    `json:"radius" yaml:"radius"` // in chunks around the center
	Workers   int    `json:"workers" yaml:"workers"`
	Datapack  string `json:"datapack" yaml:"datapack"` // directory; empty uses the embedded tables
	LogLevel  string `json:"log_level" yaml:"log_level"`
	RegionDir string `json:"region_dir" yaml:"region_dir"`
	Snapshot  string `json:"snapshot" yaml:"snapshot"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dimension: "overworld",
		Generator: "noise",
		Radius:    2,
		LogLevel:  "info",
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["dimension"] {
		cfg.Dimension = fromFile.Dimension
	}
	if !explicitFlags["generator"] {
		cfg.Generator = fromFile.Generator
	}
	if !explicitFlags["x"] {
		cfg.CenterX = fromFile.CenterX
	}
	if !explicitFlags["z"] {
		cfg.CenterZ = fromFile.CenterZ
	}
	if !explicitFlags["radius"] {
		cfg.Radius = fromFile.Radius
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["datapack"] {
		cfg.Datapack = fromFile.Datapack
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if !explicitFlags["region-dir"] {
		cfg.RegionDir = fromFile.RegionDir
	}
	if !explicitFlags["snapshot"] {
		cfg.Snapshot = fromFile.Snapshot
	}
}

// Load reads a YAML or JSON config file, chosen by extension. Fields the
// file leaves out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values a generation run cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Radius < 0:
		return fmt.Errorf("radius %d is negative", c.Radius)
	case c.Workers < 0:
		return fmt.Errorf("workers %d is negative", c.Workers)
	case c.Generator != "noise" && c.Generator != "flat":
		return fmt.Errorf("unknown generator %q", c.Generator)
	case c.Dimension == "":
		return fmt.Errorf("dimension is empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
