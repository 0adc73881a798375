// Package config loads, normalizes, and validates BurnAudio configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file beside the config,
// and honours environment fallbacks such as BURNAUDIO_NTFY_TOPIC. The Config
// type centralizes every knob the CLI needs: library and staging locations,
// the target medium, the worker pool size, and the external tool commands.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
