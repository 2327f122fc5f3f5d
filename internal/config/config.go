package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	APIConfig
	CacheConfig
	LockConfig
	StorageConfig
	MockAPIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	values
}

var _ Config = mainConfig{}

// New returns the default configuration overlaid with environment variables.
func New() Config {
	c, err := Load("")
	if err != nil {
		// Only a malformed environment variable gets here; fall back to defaults.
		return mainConfig{values: defaultValues()}
	}
	return c
}

// Load reads an optional YAML file, overlays environment variables and fills
// in defaults for anything left unset. A missing file is not an error.
func Load(path string) (Config, error) {
	var v values
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &v); err != nil {
				return nil, fmt.Errorf("parse config yaml: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	if err := env.Parse(&v); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return mainConfig{values: v.withDefaults()}, nil
}
