// Package config handles configuration loading and management for easyhttp.
//
// It provides functionality for:
//   - Loading configuration from .easyhttp.json or .easyhttp.yaml files
//   - Default configuration values
//   - Converting configuration into process-wide request defaults
package config
