package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/depotplan/core/metrics"
	"github.com/kilianp07/depotplan/infra/mqtt"
)

// Config is the root configuration of the service.
type Config struct {
	HTTP      HTTPConfig      `json:"http"`
	Depots    []DepotConfig   `json:"depots"`
	Metrics   metrics.Config  `json:"metrics"`
	History   HistoryConfig   `json:"history"`
	MQTT      mqtt.Config     `json:"mqtt"`
	Optimizer OptimizerConfig `json:"optimizer"`
}

// HTTPConfig defines the API listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// OptimizerConfig bounds the optimization heuristic.
type OptimizerConfig struct {
	// Budget limits tentative relocations per pass. Zero means the
	// built-in default.
	Budget int `json:"budget"`
}

// Load reads the configuration file at path (yaml or json) and applies
// environment overrides with the DP_ prefix.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("DP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies sane defaults on all sections.
func (c *Config) SetDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if len(c.Depots) == 0 {
		c.Depots = DefaultDepots()
	}
	c.Metrics.SetDefaults()
	c.History.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks mandatory fields.
func (c *Config) Validate() error {
	if err := c.History.Validate(); err != nil {
		return err
	}
	for _, d := range c.Depots {
		if d.Name == "" {
			return fmt.Errorf("depot with empty name")
		}
		if len(d.Tracks) == 0 {
			return fmt.Errorf("depot %s has no tracks", d.Name)
		}
	}
	return nil
}
