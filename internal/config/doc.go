// Package config loads, validates, and normalizes shortforge configuration
// from TOML, with provider credentials resolved from the environment.
package config
