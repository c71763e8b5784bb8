package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(UserConfigPath())
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// MeshPath returns the mesh export path, or "" when disabled.
func (c *Config) MeshPath() string {
	return c.outputPath(c.Output.MeshFile)
}

// PlacementsPath returns the placement export path, or "" when disabled.
func (c *Config) PlacementsPath() string {
	return c.outputPath(c.Output.PlacementsFile)
}

func (c *Config) outputPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) || c.Output.Dir == "" {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}
