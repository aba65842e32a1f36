// Package config provides configuration management for settlecli.
// It loads configuration from multiple sources, validates it, and exposes a
// typed struct shared by the HTTP service and the command line tool.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in order of
// precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML file, config.yaml or configs/config.yaml
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SETTLE_<SECTION>_<FIELD>:
//
//	SETTLE_SERVER_PORT=8080
//	SETTLE_LOGGING_LEVEL=debug
//	SETTLE_UPLOAD_MAX_BYTES=10485760
//	SETTLE_TELEMETRY_TRACE_EXPORTER=stdout
//	SETTLE_EXPORT_OUTPUT_DIR=/var/settle/out
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For tests, Default() returns a complete configuration that needs no
// environment variables or files.
package config
