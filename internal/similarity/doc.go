// Package similarity scores how alike two frame candidates are along
// independent visual and textual axes.
//
// The textual axis compares normalized OCR text with an edit-distance ratio and
// a word-overlap ratio. The visual axis compares gradient hashes: each image is
// reduced to a small grayscale thumbnail and every neighbouring pixel pair whose
// luminance step exceeds a noise floor sets a bit. Two hashes are compared by
// the share of set bits they disagree on, so flat backgrounds and encoder noise
// contribute nothing while new text or shapes move the score.
//
// All functions are pure and deterministic.
package similarity
