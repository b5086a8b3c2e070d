// doc.go - Package documentation for config.

// Package config resolves gridmat settings.
//
// Priority: defaults < .gridmat.yaml (CWD, then $HOME, or an explicit path)
// < GRIDMAT_* environment variables < command-line flags. Nested keys map to
// environment names with "." replaced by "_", e.g. GRIDMAT_BRIDGE_URL.
package config
