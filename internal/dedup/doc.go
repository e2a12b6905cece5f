// Package dedup collapses the sampled frame stream of a lecture video into the
// ordered list of unique slides.
//
// Deduplicate is a single forward fold. Each candidate is compared with the
// representative (first) frame of the open cluster and either extends that
// cluster or closes it. Closed clusters are classified once; clusters without
// readable text that the classifier does not report as diagrams are dropped as
// noise and leave the previous slide open as the merge anchor.
package dedup
