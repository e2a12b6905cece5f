// Package lecture holds the data model shared by every engine stage: sampled
// frame candidates, canonical slides, transcript spans, chapters, and the
// content segments produced for each slide.
//
// It also defines the boundary interfaces for the external collaborators the
// engine consumes (diagram classifier, term scorer, knowledge base) and the
// Settings value that carries every threshold into a single invocation. The
// package has no behaviour of its own beyond validation helpers, the
// ContentType variant and the diagram sub-type labels.
package lecture
