// Package config loads, normalizes, and validates lectern configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the LECTERN_LOG_LEVEL and
// LECTERN_KNOWLEDGE_BASE environment fallbacks. EngineSettings converts the
// loaded values into the per-invocation thresholds consumed by the engine;
// Engine adds the hash and term options that, with them, key cached results.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
