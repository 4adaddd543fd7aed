package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "worldgen.yaml", `
seed: -4172144997902289642
dimension: nether
center_x: 3
center_z: -2
radius: 4
workers: 8
region_dir: out/region
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, int64(-4172144997902289642), cfg.Seed)
	assert.Equal(t, "nether", cfg.Dimension)
	assert.Equal(t, 3, cfg.CenterX)
	assert.Equal(t, -2, cfg.CenterZ)
	assert.Equal(t, 4, cfg.Radius)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "out/region", cfg.RegionDir)
	// Unset fields keep their defaults.
	assert.Equal(t, "noise", cfg.Generator)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, "worldgen.json", `{"seed": 42, "generator": "flat", "log_level": "debug", "snapshot": "area.zst"}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "flat", cfg.Generator)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "area.zst", cfg.Snapshot)
	assert.Equal(t, "overworld", cfg.Dimension)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"extension", "worldgen.toml", `seed = 1`},
		{"syntax", "worldgen.yaml", "seed: [1"},
		{"negative radius", "worldgen.json", `{"radius": -1}`},
		{"generator", "worldgen.json", `{"generator": "amplified"}`},
		{"log level", "worldgen.yaml", "log_level: loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.data))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Radius = 1

	fromFile := DefaultConfig()
	fromFile.Seed = 99
	fromFile.Radius = 5
	fromFile.Dimension = "end"
	fromFile.Workers = 3

	Merge(cfg, fromFile, map[string]bool{"seed": true})

	assert.Equal(t, int64(7), cfg.Seed, "explicit flag wins")
	assert.Equal(t, 5, cfg.Radius)
	assert.Equal(t, "end", cfg.Dimension)
	assert.Equal(t, 3, cfg.Workers)
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}
