// Package config loads, normalizes, and validates reel's TOML configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/reel/config.toml, then ./reel.toml. Defaults are applied first,
// file values override them, and a handful of secrets (API keys) fall back to
// environment variables during normalization. All path fields are expanded to
// absolute paths before validation runs.
package config
