package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path"`
	CtxSize   int    `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads   int    `json:"threads" yaml:"threads" toml:"threads"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	// Capability floors (MB) and thermal high-water mark (0.0-1.0).
	MinTotalMB       uint64  `json:"min_total_mb" yaml:"min_total_mb" toml:"min_total_mb"`
	MinAvailMB       uint64  `json:"min_avail_mb" yaml:"min_avail_mb" toml:"min_avail_mb"`
	ComfortableMB    uint64  `json:"comfortable_mb" yaml:"comfortable_mb" toml:"comfortable_mb"`
	ThermalHighWater float64 `json:"thermal_high_water" yaml:"thermal_high_water" toml:"thermal_high_water"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
