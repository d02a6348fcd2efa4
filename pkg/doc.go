// Package pkg provides the core libraries for the Driftwall infinite canvas.
//
// # Overview
//
// Driftwall presents an unbounded, pannable 2D surface whose content is
// drawn from a finite, paginated backend collection, while keeping every
// tile stable: panning to the same place twice always shows the same
// content. The pkg directory is organized into three main areas:
//
//  1. Deterministic path - [coord], [stablehash], [sector], [canvas]:
//     map any signed grid coordinate onto a stable backend record.
//  2. Layout path - [masonry], [source]: fill a moving viewport with
//     variable-height tiles drawn from an endless unique-id feed.
//  3. Infrastructure - [cache], [errors], [observability], [buildinfo].
//
// # Architecture
//
// The deterministic data flow:
//
//	(col, row) -> chunk -> page number -> backend page -> pool index -> record
//
// [coord] encodes chunk coordinates into a single index, [source] folds that
// index onto the backend's page count, [stablehash] maps each tile onto the
// fetched page's records, and [sector] holds the populated chunks in a
// bounded LRU cache. [canvas] ties the four together.
//
// The layout flow is independent: [masonry] asks a generator for one record
// at a time and places it in a column-partitioned, gap-free arrangement
// that extends incrementally as the viewport moves. [source.Feed] is the
// production generator, wrapping the paginated backend into an endless
// stream with process-unique ids.
package pkg
