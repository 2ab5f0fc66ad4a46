// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging and runtime metrics for hioload-sock.
//
// Provides concurrent-safe state handling primitives including:
//   - TOML configuration loading, validation and reload listeners
//   - zerolog logger construction
//   - Traffic counters
package control
