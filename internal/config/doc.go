// Package config loads, normalizes, and validates eventsift configuration data.
//
// It supplies repository defaults (including the built-in London source list),
// expands user paths, reads TOML files, and honours environment fallbacks such
// as OPENAI_API_KEY and DATABASE_URL. The Config type centralizes every knob
// the pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
