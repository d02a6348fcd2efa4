package source

import (
	"github.com/matzehuels/driftwall/pkg/coord"
)

// DefaultTotalPages is the conservative page-count assumption used before
// the backend reports its real total. Large enough that early chunk→page
// folds spread across plenty of pages instead of hammering page 1.
const DefaultTotalPages = 8000

// Resolver folds chunk coordinates onto the backend's page space.
//
// The fold is a plain modulus over the chunk's encoded index, so a fixed
// total gives every chunk a fixed page, and distinct chunks intentionally
// alias to the same page (finite backend, infinite chunk space).
//
// The total starts at DefaultTotalPages and is corrected once the first
// response reveals the real count. A chunk resolved before and after that
// correction may map to different pages; this is an accepted approximation:
// resolutions are always internally consistent against the current total,
// and already-populated tiles keep their identity regardless (the sector
// store never re-maps ready tiles).
type Resolver struct {
	totalPages int
}

// NewResolver creates a resolver with the conservative default total.
func NewResolver() *Resolver {
	return &Resolver{totalPages: DefaultTotalPages}
}

// TotalPages returns the total currently used for folding.
func (r *Resolver) TotalPages() int { return r.totalPages }

// Observe updates the total from a backend response. Non-positive totals
// are ignored: a backend briefly reporting zero pages must not make every
// subsequent resolution divide by zero.
func (r *Resolver) Observe(totalPages int) {
	if totalPages > 0 {
		r.totalPages = totalPages
	}
}

// ChunkIndex encodes a chunk coordinate as its stable non-negative index.
func ChunkIndex(chunkCol, chunkRow int64) uint64 {
	return coord.Encode(chunkCol, chunkRow)
}

// Resolve returns the 1-based backend page for a chunk coordinate.
func (r *Resolver) Resolve(chunkCol, chunkRow int64) int {
	return r.ResolveIndex(ChunkIndex(chunkCol, chunkRow))
}

// ResolveIndex returns the 1-based backend page for a pre-encoded chunk
// index.
func (r *Resolver) ResolveIndex(index uint64) int {
	return int(index%uint64(r.totalPages)) + 1
}
