package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/cavegen/internal/noise"
	"github.com/Faultbox/cavegen/internal/scatter"
	"github.com/Faultbox/cavegen/pkg/isosurface"
	"github.com/Faultbox/cavegen/pkg/voxel"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://cavegen.local/config.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, schemaJSON)
	})
	return schema, schemaErr
}

// ConfigurationError lists every problem found in a configuration.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// ValidateDocument checks raw YAML against the configuration schema.
func ValidateDocument(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		// Empty file: defaults apply.
		return nil
	}

	// Round trip through JSON so the validator sees plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting config to JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("converting config to JSON: %w", err)
	}

	if err := s.Validate(v); err != nil {
		return &ConfigurationError{Problems: []string{err.Error()}}
	}
	return nil
}

// Validate checks the values a generator run depends on. Problems are
// collected rather than reported one at a time.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	g := c.Grid
	if g.Width < voxel.MinDimension || g.Height < voxel.MinDimension || g.Depth < voxel.MinDimension {
		add("grid %dx%dx%d: every dimension must be >= %d", g.Width, g.Height, g.Depth, voxel.MinDimension)
	}
	if _, err := c.Mode(); err != nil {
		add("extraction: %v", err)
	}
	if err := c.NoiseSettings().Validate(); err != nil {
		add("noise: %v", err)
	}
	if sc, err := c.ScatterSettings(); err != nil {
		add("scatter: %v", err)
	} else if err := sc.Validate(); err != nil {
		add("scatter: %v", err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("logging: unknown level %q", c.Logging.Level)
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// Mode returns the parsed extraction mode.
func (c *Config) Mode() (isosurface.Mode, error) {
	return isosurface.ParseMode(c.Extraction.Mode)
}

// NoiseSettings converts the noise section.
func (c *Config) NoiseSettings() noise.Settings {
	n := c.Noise
	return noise.Settings{
		Octaves:   n.Octaves,
		Frequency: n.Frequency,
		Alpha:     n.Alpha,
		Beta:      n.Beta,
		Amplitude: n.Amplitude,
		Offset:    n.Offset,
	}
}

// ScatterSettings converts the scatter section.
func (c *Config) ScatterSettings() (scatter.Config, error) {
	var sc scatter.Config
	order, err := scatter.ParseOrder(c.Scatter.Order)
	if err != nil {
		return sc, err
	}
	sc.Order = order
	sc.Set(scatter.Mushroom, scatter.CategoryConfig(c.Scatter.Mushroom))
	sc.Set(scatter.Plant, scatter.CategoryConfig(c.Scatter.Plant))
	sc.Set(scatter.Crystal, scatter.CategoryConfig(c.Scatter.Crystal))
	sc.Set(scatter.Firefly, scatter.CategoryConfig(c.Scatter.Firefly))
	return sc, nil
}
