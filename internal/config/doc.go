// Package config loads, normalizes, and validates sttbatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LOCAL_RANK, WORLD_SIZE, and HF_TOKEN set by distributed launchers. The Config
// type centralizes every knob the CLI and pipeline need so model, manifest,
// and output settings are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
