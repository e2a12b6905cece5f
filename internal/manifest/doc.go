// Package manifest loads video manifests: the hand-off format produced by
// the upstream sampling, OCR, transcript and chapter collaborators.
//
// A manifest is YAML (.yaml, .yml) or JSON (.json). Frame image paths and the
// optional SRT transcript file are resolved relative to the manifest. Inline
// transcript spans and an SRT file may not be combined.
//
//	video_id: lec-01
//	title: Optimisation basics
//	frames:
//	  - timestamp: 0
//	    image: frames/0000.png
//	    text: Gradient descent updates the weights
//	    confidence: 0.93
//	transcript_file: lecture.srt
//	chapters:
//	  - {name: Introduction, start: 0, end: 45}
package manifest
