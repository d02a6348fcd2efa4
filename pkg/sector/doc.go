// Package sector provides the bounded, spatially-keyed cache of tile blocks
// behind the deterministic content path.
//
// The infinite grid is partitioned into fixed-size square chunks. A chunk
// that has been materialized in memory is a sector: a flat block of tile
// slots holding each cell's resolved content state. The Store keeps at most
// a configured number of sectors resident, evicting the least-recently
// touched ones, and maintains running spatial bounds over residents so
// callers can detect when the visible region approaches the cached edge and
// prefetch proactively.
//
// Population follows a strict two-phase contract: Store.EnsurePopulated is
// the only operation that mutates tile state; read paths never do. Once a
// tile is ready its content index never changes for the lifetime of the
// process. If the backing content pool shrinks underneath it, the tile is
// marked errored rather than remapped, preserving the stability guarantee.
package sector
