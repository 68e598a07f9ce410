package config

import (
	"time"
)

// Config holds runtime settings for the gophboard CLI.
type Config struct {
	APIBaseURL     string
	DataDir        string
	RequestTimeout time.Duration
	AutosaveDelay  time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:4000/api"
	c.DataDir = ".gophboard"
	c.RequestTimeout = 10 * time.Second
	c.AutosaveDelay = time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the environment (with an optional .env file), then the
// remaining command-line flags. Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, DotEnvFile); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
