package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Maps struct {
		Dir string `yaml:"dir"` // directory searched for .map files in stack mode
	} `yaml:"maps"`
	Resolve struct {
		LineBase string `yaml:"line_base"` // auto, zero or one
		Context  int    `yaml:"context"`   // nearby-context radius in original lines
	} `yaml:"resolve"`
	Index struct {
		Path string `yaml:"path"` // SQLite index location
	} `yaml:"index"`
}

// LoadConfig reads the optional YAML configuration. A missing file is not
// an error; defaults apply, then the file, then SMTRACE_* environment
// variables (flags are applied on top by the CLI).
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Maps.Dir = "."
	cfg.Resolve.LineBase = "auto"
	cfg.Resolve.Context = 5
	cfg.Index.Path = "smtrace.db"

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if dir := os.Getenv("SMTRACE_MAPS_DIR"); dir != "" {
		cfg.Maps.Dir = dir
	}
	if base := os.Getenv("SMTRACE_LINE_BASE"); base != "" {
		cfg.Resolve.LineBase = base
	}
	if radius := os.Getenv("SMTRACE_CONTEXT"); radius != "" {
		if n, err := strconv.Atoi(radius); err == nil {
			cfg.Resolve.Context = n
		}
	}
	if index := os.Getenv("SMTRACE_INDEX_PATH"); index != "" {
		cfg.Index.Path = index
	}

	return cfg, nil
}
