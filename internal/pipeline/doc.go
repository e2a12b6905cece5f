// Package pipeline composes the engine stages for one video.
//
// Run executes dedup, chapter alignment, segmentation and enrichment in
// order. Each stage gets its own component logger (with any per-stage level
// override from config) and the video id travels on the context so every
// log line can be correlated. The engine holds no mutable state between
// runs: one Engine may serve many videos concurrently, and the knowledge
// base is supplied by the caller on every Run.
package pipeline
