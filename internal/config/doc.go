// Package config loads, normalizes, and validates vtrpon configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VTRPON_NTFY_TOPIC. The Config type centralizes every knob the daemon and CLI
// need: where the playlist database lives, which slide exporter backend to
// drive, how ffmpeg assembles the slideshow, and how observers are notified.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
