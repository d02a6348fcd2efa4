package sector

import (
	"container/list"
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftwall/pkg/errors"
	"github.com/matzehuels/driftwall/pkg/observability"
)

// Default store configuration.
const (
	// DefaultChunkSize is the edge length of a sector in tiles.
	DefaultChunkSize = 16

	// DefaultMaxSectors bounds resident sectors. At 16×16 tiles per
	// sector this caps the deterministic path at ~16k resolved tiles.
	DefaultMaxSectors = 64
)

// Options configures a Store.
type Options struct {
	// ChunkSize is the sector edge length in tiles. Defaults to
	// DefaultChunkSize.
	ChunkSize int

	// MaxSectors caps resident sectors. Must be at least 1: a smaller cap
	// would evict everything after each insert, which is a configuration
	// error, not a runtime condition. Defaults to DefaultMaxSectors.
	MaxSectors int

	// Logger receives eviction and population events. Defaults to a
	// discard logger.
	Logger *log.Logger
}

// Bounds is the running spatial extent of resident sectors, in chunk
// coordinates. All four edges are inclusive.
type Bounds struct {
	MinCol, MaxCol int64
	MinRow, MaxRow int64
}

// Store is a bounded cache of sectors with least-recently-touched eviction.
//
// Recency is tracked with a doubly linked list over the resident set, giving
// O(1) touch and eviction. The Store is owned and mutated by a single engine
// instance; it is not goroutine-safe on its own.
type Store struct {
	chunkSize  int
	maxSectors int
	logger     *log.Logger

	// order holds *Sector values, least-recently-touched at the front.
	order    *list.List
	resident map[Key]*list.Element

	bounds      Bounds
	boundsDirty bool
}

// New creates a Store, validating configuration eagerly.
func New(opts Options) (*Store, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.MaxSectors == 0 {
		opts.MaxSectors = DefaultMaxSectors
	}
	if opts.ChunkSize < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "chunk size must be at least 1, got %d", opts.ChunkSize)
	}
	if opts.MaxSectors < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "sector cap must be at least 1, got %d", opts.MaxSectors)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Store{
		chunkSize:  opts.ChunkSize,
		maxSectors: opts.MaxSectors,
		logger:     opts.Logger,
		order:      list.New(),
		resident:   make(map[Key]*list.Element),
	}, nil
}

// ChunkSize returns the configured sector edge length in tiles.
func (s *Store) ChunkSize() int { return s.chunkSize }

// Len returns the number of resident sectors.
func (s *Store) Len() int { return s.order.Len() }

// GetOrCreate returns the sector for a chunk coordinate, allocating an
// all-empty one if absent. The sector is marked most-recently-touched either
// way. isNew reports whether an allocation happened; allocation may evict
// the least-recently-touched sector(s) to stay under the cap.
func (s *Store) GetOrCreate(chunkCol, chunkRow int64) (sec *Sector, isNew bool) {
	key := Key{Col: chunkCol, Row: chunkRow}

	if el, ok := s.resident[key]; ok {
		s.order.MoveToBack(el)
		return el.Value.(*Sector), false
	}

	sec = newSector(chunkCol, chunkRow, s.chunkSize)
	s.resident[key] = s.order.PushBack(sec)
	s.growBounds(chunkCol, chunkRow)
	observability.Store().OnSectorCreate(context.Background(), chunkCol, chunkRow)

	s.evictIfNeeded()
	return sec, true
}

// Peek returns the sector for a chunk coordinate without affecting recency.
// Used by read-only debug surfaces.
func (s *Store) Peek(chunkCol, chunkRow int64) (*Sector, bool) {
	el, ok := s.resident[Key{Col: chunkCol, Row: chunkRow}]
	if !ok {
		return nil, false
	}
	return el.Value.(*Sector), true
}

// Touch marks a sector most-recently-touched. Reports whether the sector
// was resident.
func (s *Store) Touch(chunkCol, chunkRow int64) bool {
	el, ok := s.resident[Key{Col: chunkCol, Row: chunkRow}]
	if !ok {
		return false
	}
	s.order.MoveToBack(el)
	return true
}

// Bounds returns the spatial extent of resident sectors, or ok=false when
// the store is empty. After an eviction the running bounds are stale; they
// are recomputed here by full rescan, so the cost is paid once per eviction
// rather than on every touch.
func (s *Store) Bounds() (b Bounds, ok bool) {
	if s.order.Len() == 0 {
		return Bounds{}, false
	}
	if s.boundsDirty {
		s.rescanBounds()
	}
	return s.bounds, true
}

// NearEdge reports whether the given chunk coordinate lies within margin
// chunks of the resident bounds' edge. Callers use this to schedule
// proactive page fetches before panning exposes uncached space.
func (s *Store) NearEdge(chunkCol, chunkRow int64, margin int64) bool {
	b, ok := s.Bounds()
	if !ok {
		return true
	}
	return chunkCol-b.MinCol < margin || b.MaxCol-chunkCol < margin ||
		chunkRow-b.MinRow < margin || b.MaxRow-chunkRow < margin
}

// evictIfNeeded removes least-recently-touched sectors while over the cap.
func (s *Store) evictIfNeeded() {
	evicted := false
	for s.order.Len() > s.maxSectors {
		front := s.order.Front()
		victim := front.Value.(*Sector)
		s.order.Remove(front)
		delete(s.resident, Key{Col: victim.Col, Row: victim.Row})
		evicted = true

		observability.Store().OnSectorEvict(context.Background(), victim.Col, victim.Row, s.order.Len())
		s.logger.Debug("evicted sector",
			"chunk_col", victim.Col,
			"chunk_row", victim.Row,
			"resident", s.order.Len())
	}
	if evicted {
		s.boundsDirty = true
	}
}

// growBounds extends the running bounds to include a new sector.
func (s *Store) growBounds(chunkCol, chunkRow int64) {
	if s.order.Len() == 1 {
		s.bounds = Bounds{MinCol: chunkCol, MaxCol: chunkCol, MinRow: chunkRow, MaxRow: chunkRow}
		return
	}
	s.extendBounds(chunkCol, chunkRow)
}

// rescanBounds recomputes bounds from the full resident set.
func (s *Store) rescanBounds() {
	first := true
	for el := s.order.Front(); el != nil; el = el.Next() {
		sec := el.Value.(*Sector)
		if first {
			s.bounds = Bounds{MinCol: sec.Col, MaxCol: sec.Col, MinRow: sec.Row, MaxRow: sec.Row}
			first = false
			continue
		}
		s.extendBounds(sec.Col, sec.Row)
	}
	s.boundsDirty = false
}

func (s *Store) extendBounds(chunkCol, chunkRow int64) {
	if chunkCol < s.bounds.MinCol {
		s.bounds.MinCol = chunkCol
	}
	if chunkCol > s.bounds.MaxCol {
		s.bounds.MaxCol = chunkCol
	}
	if chunkRow < s.bounds.MinRow {
		s.bounds.MinRow = chunkRow
	}
	if chunkRow > s.bounds.MaxRow {
		s.bounds.MaxRow = chunkRow
	}
}
