// Package config loads runtime configuration for the gophboard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: GOPHBOARD_API_URL, GOPHBOARD_DATA_DIR,
//     GOPHBOARD_REQUEST_TIMEOUT, GOPHBOARD_AUTOSAVE_DELAY, GOPHBOARD_LOG_LEVEL.
//     A .env file in the working directory is loaded first if present.
//  4. Command-line flags -a, -d, -t, -s, -l.
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://localhost:4000/api",
//	  "data_dir": ".gophboard",
//	  "request_timeout": "10s",
//	  "autosave_delay": "1s",
//	  "log_level": "info"
//	}
package config
