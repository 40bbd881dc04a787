// Package config loads the containerizer daemon's on-disk configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration, loaded from a YAML file and
// overridable by environment variables of the same name upper-cased and
// prefixed with CONTAINERIZER_.
type Config struct {
	// SlaveID identifies the agent node this daemon serves.
	SlaveID string `yaml:"slave_id"`

	// DataDir is where the checkpoint database and engine working
	// directories live.
	DataDir string `yaml:"data_dir"`

	// EngineBin is the external engine's CLI binary, e.g. "docker".
	EngineBin string `yaml:"engine_bin"`

	// NamePrefix is the fixed, process-global engine-name prefix. Running
	// more than one agent against one engine requires giving each a
	// distinct prefix.
	NamePrefix string `yaml:"name_prefix"`

	// MetricsAddr is the address the Prometheus /metrics endpoint listens
	// on. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel string `yaml:"log_level"`

	// LogJSON selects JSON log output instead of the console writer.
	LogJSON bool `yaml:"log_json"`
}

// Default returns a Config with sensible defaults for local development.
func Default() *Config {
	return &Config{
		DataDir:    "/var/lib/containerizer",
		EngineBin:  "docker",
		NamePrefix: "mesos-",
		LogLevel:   "info",
	}
}

// Load reads and parses the YAML config file at path, falling back to
// Default() for any field the file leaves unset, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.SlaveID == "" {
		return nil, fmt.Errorf("config: slave_id is required")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONTAINERIZER_SLAVE_ID"); v != "" {
		cfg.SlaveID = v
	}
	if v := os.Getenv("CONTAINERIZER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CONTAINERIZER_ENGINE_BIN"); v != "" {
		cfg.EngineBin = v
	}
	if v := os.Getenv("CONTAINERIZER_NAME_PREFIX"); v != "" {
		cfg.NamePrefix = v
	}
	if v := os.Getenv("CONTAINERIZER_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("CONTAINERIZER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CONTAINERIZER_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogJSON = b
		}
	}
}
