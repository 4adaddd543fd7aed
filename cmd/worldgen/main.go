package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-theft-craft/worldgen/internal/config"
	"github.com/go-theft-craft/worldgen/internal/datapack"
	"github.com/go-theft-craft/worldgen/internal/snapshot"
	"github.com/go-theft-craft/worldgen/pkg/world/anvil"
	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/level"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "YAML or JSON config file")
	diffPath := flag.String("diff", "", "compare the generated area with this snapshot")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.StringVar(&cfg.Dimension, "dimension", cfg.Dimension, "dimension to generate")
	flag.StringVar(&cfg.Generator, "generator", cfg.Generator, `"noise" or "flat"`)
	flag.IntVar(&cfg.CenterX, "x", cfg.CenterX, "center chunk x")
	flag.IntVar(&cfg.CenterZ, "z", cfg.CenterZ, "center chunk z")
	flag.IntVar(&cfg.Radius, "radius", cfg.Radius, "chunks to generate around the center")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent chunk generations (0 = GOMAXPROCS)")
	flag.StringVar(&cfg.Datapack, "datapack", cfg.Datapack, "datapack directory (empty = embedded tables)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.RegionDir, "region-dir", cfg.RegionDir, "write region files to this directory")
	flag.StringVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "write a snapshot of the area to this file")
	flag.Parse()

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *diffPath, logger); err != nil {
		logger.Error("worldgen failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	h := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: true,
		Level:           lvl,
	})
	return slog.New(h), nil
}

func run(ctx context.Context, cfg *config.Config, diffPath string, logger *slog.Logger) error {
	var (
		pack *datapack.Pack
		err  error
	)
	if cfg.Datapack != "" {
		pack, err = datapack.LoadDir(cfg.Datapack, logger)
	} else {
		pack, err = datapack.Default()
	}
	if err != nil {
		return fmt.Errorf("load datapack: %w", err)
	}

	dim, err := pack.Dimension(cfg.Dimension)
	if err != nil {
		return err
	}
	g, err := newGenerator(cfg, pack, dim, logger)
	if err != nil {
		return err
	}

	lvl := level.New(g, logger, level.WithWorkers(cfg.Workers))
	center := pos.Chunk{X: cfg.CenterX, Z: cfg.CenterZ}
	start := time.Now()
	chunks, err := lvl.GenerateArea(ctx, center, cfg.Radius)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	empty := 0
	for _, c := range chunks {
		empty += c.EmptySections()
	}
	logger.Info("area generated",
		"dimension", cfg.Dimension,
		"seed", cfg.Seed,
		"chunks", len(chunks),
		"workers", lvl.Workers(),
		"elapsed", elapsed.Round(time.Millisecond),
		"per_chunk", (elapsed / time.Duration(max(len(chunks), 1))).Round(time.Microsecond),
		"empty_sections", empty,
		"spawn_height", lvl.SpawnHeight())

	if cfg.RegionDir != "" {
		n, err := anvil.WriteRegions(cfg.RegionDir, chunks)
		if err != nil {
			return fmt.Errorf("write regions: %w", err)
		}
		logger.Info("regions written", "dir", cfg.RegionDir, "files", n)
	}

	snap := snapshot.FromChunks(cfg.Dimension, cfg.Seed, chunks)
	if cfg.Snapshot != "" {
		if err := snapshot.Save(cfg.Snapshot, snap); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", cfg.Snapshot)
	}
	if diffPath != "" {
		prev, err := snapshot.Load(diffPath)
		if err != nil {
			return err
		}
		if diffs := snapshot.Diff(prev, snap, 20); len(diffs) > 0 {
			for _, d := range diffs {
				logger.Warn("snapshot differs", "diff", d)
			}
			return fmt.Errorf("area differs from %s", diffPath)
		}
		logger.Info("area matches snapshot", "path", diffPath)
	}
	return nil
}

func newGenerator(cfg *config.Config, pack *datapack.Pack, dim *gen.Dimension, logger *slog.Logger) (gen.Generator, error) {
	if cfg.Generator == "noise" {
		return gen.NewNoiseGenerator(dim, cfg.Seed, logger)
	}
	plains, ok := pack.Biomes.ByName("minecraft:plains")
	if !ok {
		return nil, fmt.Errorf("flat generator: no plains biome")
	}
	b := pack.Blocks
	return gen.NewFlatGenerator(b, pack.Biomes, dim.Settings.HeightContext(), plains,
		gen.FlatLayer{State: b.MustDefault("bedrock"), Height: 1},
		gen.FlatLayer{State: b.MustDefault("dirt"), Height: 2},
		gen.FlatLayer{State: b.MustDefault("grass_block"), Height: 1},
	)
}
