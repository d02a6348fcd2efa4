package sector

import (
	"github.com/matzehuels/driftwall/pkg/stablehash"
)

// EnsurePopulated maps every empty tile in sec onto the content pool and is
// the only operation that mutates tile state.
//
// Ready tiles are left untouched unless poolSize has shrunk below their
// content index, in which case they flip to TileError, a data-integrity
// condition that is logged and surfaced as a placeholder rather than a
// remap. Remapping would break the stability guarantee. Errored tiles
// stay errored.
//
// With poolSize <= 0 there is nothing to map to; empty tiles stay empty and
// the call reports zero work done.
//
// Returns the number of tiles newly marked ready and the number newly
// marked errored.
func (s *Store) EnsurePopulated(sec *Sector, poolSize int, seed uint64) (ready, errored int) {
	if poolSize <= 0 {
		return 0, 0
	}

	base := int64(sec.size)
	for localRow := 0; localRow < sec.size; localRow++ {
		for localCol := 0; localCol < sec.size; localCol++ {
			t := &sec.tiles[localRow*sec.size+localCol]

			if t.State == TileError {
				continue
			}
			if t.State == TileReady {
				if t.ContentIndex >= poolSize {
					t.State = TileError
					errored++
					s.logger.Warn("content pool shrank below tile index",
						"chunk_col", sec.Col,
						"chunk_row", sec.Row,
						"content_index", t.ContentIndex,
						"pool_size", poolSize)
				}
				continue
			}

			col := sec.Col*base + int64(localCol)
			row := sec.Row*base + int64(localRow)
			idx := stablehash.MapToIndex(col, row, seed, poolSize)
			if idx < 0 {
				continue
			}
			t.State = TileReady
			t.ContentIndex = idx
			ready++
		}
	}
	return ready, errored
}
