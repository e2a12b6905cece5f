// Package textutil provides text processing utilities for OCR and transcript
// comparison, term tokenization, and filename sanitization.
//
// The primary use cases are:
//   - Normalizing text (NFKC, Unicode case folding, collapsed whitespace)
//     before any comparison
//   - Scoring textual similarity with an edit-distance ratio and a word
//     overlap ratio
//   - Building token fingerprints for term frequency counting
//   - Sanitizing filenames and path segments for safe filesystem use
//
// The tokenization process normalizes text, splits on non-alphanumeric
// characters, and filters tokens shorter than 3 characters.
package textutil
