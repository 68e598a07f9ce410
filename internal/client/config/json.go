package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophboard/internal/flagx"
	"github.com/dmitrijs2005/gophboard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// may be written as "5s" or as integer nanoseconds. Absent fields keep
// their previous values.
type JsonConfig struct {
	APIBaseURL     *string         `json:"api_base_url"`
	DataDir        *string         `json:"data_dir"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	AutosaveDelay  *timex.Duration `json:"autosave_delay"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays cfg with the file given by -c or -config. Without the
// flag nothing happens.
func parseJson(cfg *Config, args []string) error {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != nil {
		cfg.APIBaseURL = *jc.APIBaseURL
	}
	if jc.DataDir != nil {
		cfg.DataDir = *jc.DataDir
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.AutosaveDelay != nil {
		cfg.AutosaveDelay = jc.AutosaveDelay.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
