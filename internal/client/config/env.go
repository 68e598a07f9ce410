package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DotEnvFile is read from the working directory if it exists. Variables
// already set in the environment are not overridden by it.
const DotEnvFile = ".env"

const (
	EnvAPIURL         = "GOPHBOARD_API_URL"
	EnvDataDir        = "GOPHBOARD_DATA_DIR"
	EnvRequestTimeout = "GOPHBOARD_REQUEST_TIMEOUT"
	EnvAutosaveDelay  = "GOPHBOARD_AUTOSAVE_DELAY"
	EnvLogLevel       = "GOPHBOARD_LOG_LEVEL"
)

func parseEnv(cfg *Config, dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	if v, ok := os.LookupEnv(EnvAPIURL); ok {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if err := envDuration(EnvRequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}
	return envDuration(EnvAutosaveDelay, &cfg.AutosaveDelay)
}

func envDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
