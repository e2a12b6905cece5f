// Package logging assembles the structured slog loggers used by lectern.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context-aware helpers that tag log lines with the video, run, and stage a
// record belongs to. Stage code should build its logger with
// NewComponentLogger or ForStage so every component emits the same fields.
// NewNop returns a logger that discards everything for tests and optional
// wiring.
package logging
