// Package config loads the application configuration.
//
// # Configuration Sources
//
// Values are layered in order of increasing precedence:
//
//  1. Default()
//  2. A YAML file (config.yaml or configs/config.yaml, or --config)
//  3. Environment variables
//
// # Environment Variables
//
// All environment variables use the VSTOXX_ prefix followed by the section:
//
//	VSTOXX_SERVER_PORT=8080
//	VSTOXX_LOGGING_LEVEL=debug
//	VSTOXX_COMPUTE_MODE=collect_all
//	VSTOXX_COMPUTE_WORKERS=4
//	VSTOXX_DATA_INPUT_FILE=vs.csv
//	VSTOXX_STORE_ENABLED=true
//	VSTOXX_STORE_POSTGRES_DSN=postgres://...
//
// # Validation
//
// The merged configuration is checked with validator struct tags. Load
// returns an error naming every field that fails.
package config
