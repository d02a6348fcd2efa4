// Package masonry implements an incremental column-partitioned layout over
// an unbounded two-dimensional canvas.
//
// An Engine owns a sparse map of columns indexed by signed integers. Each
// query supplies a viewport rectangle; the engine materializes every column
// intersecting the viewport plus overscan, pulls content descriptors from a
// caller-supplied generator to extend columns toward the exposed borders,
// and returns the placed items intersecting the overscanned viewport.
//
// Within a column, items are kept sorted by y and separated by at least the
// configured row gap. Insertions that would violate the gap shift the run of
// items on exactly one side of the insertion point, chosen by the direction
// the viewport moved, so repeated queries stay deterministic.
package masonry
