package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models pactum.yml. Environment variables override file values so
// deployments can keep secrets out of the file.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"`
	Outbox      struct {
		Interval  Duration `yaml:"interval"`
		BatchSize int      `yaml:"batch_size"`
		Workers   int      `yaml:"workers"`
	} `yaml:"outbox"`
}

// Duration wraps time.Duration so yaml values like "2s" parse naturally.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads the config file at path (missing file is fine), applies env
// overrides, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// env-only configuration
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromYAML parses config from raw yaml without touching the environment.
func FromYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PACTUM_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("PACTUM_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("PACTUM_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Outbox.Interval == 0 {
		cfg.Outbox.Interval = Duration(2 * time.Second)
	}
	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 50
	}
	if cfg.Outbox.Workers == 0 {
		cfg.Outbox.Workers = 4
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database_url is required (or set PACTUM_DATABASE_URL)")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: jwt_secret is required (or set PACTUM_JWT_SECRET)")
	}
	if c.Outbox.BatchSize < 0 || c.Outbox.Workers < 0 {
		return fmt.Errorf("config: outbox batch_size and workers must be positive")
	}
	return nil
}
