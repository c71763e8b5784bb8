// Package main is the entry point for the cave terrain generator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/cavegen/internal/config"
	"github.com/Faultbox/cavegen/internal/export"
	"github.com/Faultbox/cavegen/internal/generator"
	"github.com/Faultbox/cavegen/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Cave Generator ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			logger.Error("failed to save config", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("path", config.UserConfigPath()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("generation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	res, err := generator.Generate(ctx, cfg, generator.Deps{})
	if err != nil {
		return err
	}

	var renderer generator.Renderer
	if path := cfg.MeshPath(); path != "" {
		renderer = export.NewSTLWriter(path)
	}

	var instantiator generator.Instantiator
	var placements *export.PlacementWriter
	if path := cfg.PlacementsPath(); path != "" {
		placements, err = export.NewPlacementWriter(path)
		if err != nil {
			return err
		}
		instantiator = placements
	}

	err = generator.Publish(res, renderer, instantiator)
	if placements != nil {
		err = errors.Join(err, placements.Close())
	}
	if err != nil {
		return err
	}

	logger.Info("output written",
		zap.String("mesh", cfg.MeshPath()),
		zap.String("placements", cfg.PlacementsPath()),
		zap.Int("triangles", res.Mesh.TriangleCount()),
		zap.Int("objects", len(res.Placements)),
		zap.Int64("seed", res.Stats.Seed))
	return nil
}
