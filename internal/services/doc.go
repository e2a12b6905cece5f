// Package services defines shared utilities consumed by the engine stages and
// the batch runner.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs, run IDs, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that separate fatal
//     failures (ordering and invariant violations) from degradable ones
//     (classifier or term scorer unavailable).
//   - Typed errors for ascending-time violations and broken slide invariants.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
