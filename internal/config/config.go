// Package config handles generator configuration loading and management.
package config

// Config holds all generator settings.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Noise      NoiseConfig      `yaml:"noise"`
	Assembly   AssemblyConfig   `yaml:"assembly"`
	Scatter    ScatterConfig    `yaml:"scatter"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GridConfig holds voxel grid dimensions.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`
}

// ExtractionConfig selects the isosurface algorithm.
type ExtractionConfig struct {
	Mode     string  `yaml:"mode"` // cubes or tetrahedra
	Isovalue float32 `yaml:"isovalue"`
}

// NoiseConfig holds fractal Perlin settings for the default sampler.
type NoiseConfig struct {
	Octaves   int     `yaml:"octaves"`
	Frequency float64 `yaml:"frequency"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Amplitude float64 `yaml:"amplitude"`
	Offset    float64 `yaml:"offset"`
}

// AssemblyConfig holds mesh assembly settings.
type AssemblyConfig struct {
	SmoothFallback bool `yaml:"smooth_fallback"`
}

// ScatterConfig holds object placement settings.
type ScatterConfig struct {
	// Seed fixes the noise and placement streams. Nil picks one at random.
	Seed     *int64         `yaml:"seed,omitempty"`
	Order    string         `yaml:"order"` // category or vertex
	Mushroom CategoryConfig `yaml:"mushroom"`
	Plant    CategoryConfig `yaml:"plant"`
	Crystal  CategoryConfig `yaml:"crystal"`
	Firefly  CategoryConfig `yaml:"firefly"`
}

// CategoryConfig holds spawn settings for one object category.
type CategoryConfig struct {
	Chance   float64 `yaml:"chance"`
	Variants int     `yaml:"variants"`
}

// OutputConfig holds export paths. Relative files are resolved against Dir.
type OutputConfig struct {
	Dir            string `yaml:"dir"`
	MeshFile       string `yaml:"mesh_file"`
	PlacementsFile string `yaml:"placements_file"` // .zst suffix compresses
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Width:  32,
			Height: 32,
			Depth:  32,
		},
		Extraction: ExtractionConfig{
			Mode:     "cubes",
			Isovalue: 0,
		},
		Noise: NoiseConfig{
			Octaves:   3,
			Frequency: 1,
			Alpha:     2,
			Beta:      2,
			Amplitude: 1,
			Offset:    0,
		},
		Assembly: AssemblyConfig{
			SmoothFallback: true,
		},
		Scatter: ScatterConfig{
			Order:    "category",
			Mushroom: CategoryConfig{Chance: 1, Variants: 3},
			Plant:    CategoryConfig{Chance: 1, Variants: 4},
			Crystal:  CategoryConfig{Chance: 1, Variants: 2},
			Firefly:  CategoryConfig{Chance: 1, Variants: 1},
		},
		Output: OutputConfig{
			Dir:            "out",
			MeshFile:       "cave.stl",
			PlacementsFile: "placements.jsonl.zst",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
