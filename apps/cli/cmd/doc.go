// Package cmd implements the easyhttp CLI commands using Cobra.
//
// Available commands:
//   - get, head, post, put, delete: Execute a single HTTP request
//   - history: Show requests recorded with --history
//   - init: Create a config file in the current directory
//   - version: Show easyhttp version information
//
// Settings are read from a config file, EASYHTTP_* environment variables and
// flags, in increasing order of precedence.
package cmd
