package config

import (
	"flag"
	"fmt"
	"strconv"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagWidth    = flag.Int("width", 0, "Grid width in voxels")
	flagHeight   = flag.Int("height", 0, "Grid height in voxels")
	flagDepth    = flag.Int("depth", 0, "Grid depth in voxels")
	flagMode     = flag.String("mode", "", "Extraction mode: cubes or tetrahedra")
	flagIsovalue = flag.String("isovalue", "", "Surface threshold")
	flagSeed     = flag.String("seed", "", "Random seed for noise and placement")
	flagOrder    = flag.String("order", "", "Scatter order: category or vertex")
	flagOut      = flag.String("out", "", "Output directory")
	flagLogFile  = flag.String("log-file", "", "Also log to this file")

	flagSaveConfig = flag.Bool("save-config", false, "Write the effective config to the user config directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Grid.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Grid.Height = *flagHeight
	}
	if *flagDepth > 0 {
		cfg.Grid.Depth = *flagDepth
	}
	if *flagMode != "" {
		cfg.Extraction.Mode = *flagMode
	}
	if *flagIsovalue != "" {
		v, err := strconv.ParseFloat(*flagIsovalue, 32)
		if err != nil {
			return fmt.Errorf("invalid -isovalue %q: %w", *flagIsovalue, err)
		}
		cfg.Extraction.Isovalue = float32(v)
	}
	if *flagSeed != "" {
		seed, err := strconv.ParseInt(*flagSeed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid -seed %q: %w", *flagSeed, err)
		}
		cfg.Scatter.Seed = &seed
	}
	if *flagOrder != "" {
		cfg.Scatter.Order = *flagOrder
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	return nil
}
