// Package config loads, normalizes, and validates mipexport configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WINEPREFIX. The Config type centralizes every knob the exporter and CLI
// need, so the source asset, work directory, and external tool locations are
// resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
