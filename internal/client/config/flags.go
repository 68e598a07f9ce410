package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophboard/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string     API base URL
//	-d string     local data directory
//	-t duration   request timeout
//	-s duration   autosave delay
//	-l string     log level
//
// Only these flags are looked at; -c/-config belongs to parseJson.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-s", "-l"})

	fs := flag.NewFlagSet("gophboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.DurationVar(&cfg.AutosaveDelay, "s", cfg.AutosaveDelay, "draft autosave delay")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
