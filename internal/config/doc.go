// Package config loads, normalizes, and validates satchel's TOML
// configuration, with environment overlays for credentials.
package config
