// Package output provides formatters for displaying executed requests.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
package output
