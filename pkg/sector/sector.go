package sector

// TileState describes one grid cell's resolution state.
type TileState uint8

// Tile resolution states.
const (
	// TileEmpty means the tile has not been mapped yet.
	TileEmpty TileState = iota

	// TileReady means the tile holds a stable content index.
	TileReady

	// TileError means the tile could not be resolved (e.g. the content
	// pool shrank below its index). Rendered as a placeholder, never
	// silently remapped.
	TileError
)

// String returns the state name for logs and debug output.
func (s TileState) String() string {
	switch s {
	case TileEmpty:
		return "empty"
	case TileReady:
		return "ready"
	case TileError:
		return "error"
	default:
		return "unknown"
	}
}

// Tile is one grid cell's resolved content state. ContentIndex is only
// meaningful when State is TileReady.
type Tile struct {
	State        TileState
	ContentIndex int
}

// Key identifies a sector by its chunk coordinate.
type Key struct {
	Col, Row int64
}

// Sector is a populated chunk: a size×size block of tile slots plus the
// chunk coordinate that owns them. Tiles are stored row-major.
type Sector struct {
	Col, Row int64

	size  int
	tiles []Tile
}

func newSector(col, row int64, size int) *Sector {
	return &Sector{
		Col:   col,
		Row:   row,
		size:  size,
		tiles: make([]Tile, size*size),
	}
}

// Size returns the sector's edge length in tiles.
func (s *Sector) Size() int { return s.size }

// Tile returns the tile at sector-local coordinates. Callers must not
// mutate tile state through the returned pointer; Store.EnsurePopulated is
// the only mutator.
func (s *Sector) Tile(localCol, localRow int) *Tile {
	return &s.tiles[localRow*s.size+localCol]
}

// WorldTile returns the tile owning the given world coordinate, which must
// lie within this sector.
func (s *Sector) WorldTile(col, row int64) *Tile {
	localCol := int(col - s.Col*int64(s.size))
	localRow := int(row - s.Row*int64(s.size))
	return s.Tile(localCol, localRow)
}

// HasEmpty reports whether any tile is still unmapped. Errored tiles are
// terminal and do not count as empty.
func (s *Sector) HasEmpty() bool {
	for i := range s.tiles {
		if s.tiles[i].State == TileEmpty {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the tile block for debug surfaces.
func (s *Sector) Snapshot() []Tile {
	out := make([]Tile, len(s.tiles))
	copy(out, s.tiles)
	return out
}

// readyCount returns how many tiles are in the ready state.
func (s *Sector) readyCount() int {
	n := 0
	for i := range s.tiles {
		if s.tiles[i].State == TileReady {
			n++
		}
	}
	return n
}
