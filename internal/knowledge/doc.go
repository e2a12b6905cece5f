// Package knowledge persists learned technical terms in SQLite.
//
// The Store implements lecture.KnowledgeBase: the enricher looks terms up to
// widen a slide's technical vocabulary and records every technical term it
// confirms in a transcript. Each term keeps an occurrence count plus first and
// last seen timestamps so the CLI can list what the engine has learned.
// Terms are keyed by their case-folded, NFKC-normalized form.
package knowledge
