package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	get "github.com/hashicorp/go-getter"

	"github.com/go-theft-craft/worldgen/internal/datapack"
)

func main() {
	var (
		src  = flag.String("src", "", "go-getter source of a datapack directory, e.g. git::https://host/repo.git//data")
		name = flag.String("name", "custom", "datapack name")
		out  = flag.String("o", "./data", "output dir path")
	)
	flag.Parse()

	logger := slog.New(log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true}))

	if *src == "" {
		logger.Error("source url required")
		os.Exit(2)
	}
	if *out == "" || *name == "" {
		logger.Error("output dir and name required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := filepath.Join(*out, *name)
	if err := fetch(ctx, *src, path, logger); err != nil {
		logger.Error("fetch datapack", "error", err)
		os.Exit(1)
	}
}

// fetch downloads src into path and checks that it loads. A pack that fails
// validation is removed again.
func fetch(ctx context.Context, src, path string, logger *slog.Logger) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}

	logger.Info("start downloading datapack", "src", src, "path", path)
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}
	client := &get.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  path,
		Pwd:  pwd,
		Mode: get.ClientModeDir,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("download %s: %w", src, err)
	}

	pack, err := datapack.LoadDir(path, logger)
	if err != nil {
		os.RemoveAll(path)
		return fmt.Errorf("validate %s: %w", path, err)
	}
	logger.Info("done downloading datapack", "path", path, "dimensions", pack.Dimensions())
	return nil
}
