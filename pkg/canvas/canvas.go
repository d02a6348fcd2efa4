package canvas

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/driftwall/pkg/coord"
	"github.com/matzehuels/driftwall/pkg/errors"
	"github.com/matzehuels/driftwall/pkg/sector"
	"github.com/matzehuels/driftwall/pkg/source"
)

// DefaultSeed is the hash seed used when none is configured. Changing the
// seed reshuffles the entire canvas, so it is fixed per deployment.
const DefaultSeed uint64 = 0xdb155eed

// DefaultPrefetchMargin is how close (in chunks) the queried chunk may get
// to the resident bounds before neighbor pages are warmed.
const DefaultPrefetchMargin int64 = 1

// Options configures a Canvas.
type Options struct {
	// Fetcher retrieves backend pages. Required.
	Fetcher source.Fetcher

	// Resolver maps chunks onto backend pages and tracks the reported page
	// total. A private one is created when nil.
	Resolver *source.Resolver

	// Store holds populated sectors. A store with default bounds is
	// created when nil.
	Store *sector.Store

	// Seed feeds the content hash. Defaults to DefaultSeed.
	Seed uint64

	// PrefetchMargin controls edge prefetching; negative disables it.
	// Defaults to DefaultPrefetchMargin.
	PrefetchMargin int64

	// Logger receives resolution and prefetch events. Defaults to a
	// discard logger.
	Logger *log.Logger
}

// Tile is one resolved grid cell.
type Tile struct {
	Col, Row     int64
	State        sector.TileState
	ContentIndex int

	// Page is the backend page the owning chunk resolved to.
	Page int

	// Record is the backing content for ready tiles, nil otherwise.
	Record *source.Record
}

// Stats is a point-in-time snapshot of canvas activity.
type Stats struct {
	Sectors      int
	Bounds       sector.Bounds
	HasBounds    bool
	PagesLoaded  int
	TilesReady   int64
	TilesErrored int64
}

// Canvas orchestrates the deterministic tile path. Safe for concurrent use;
// store and resolver access is serialized internally while page fetches run
// outside the lock and are deduplicated per page.
type Canvas struct {
	fetcher source.Fetcher
	seed    uint64
	margin  int64
	logger  *log.Logger

	flight singleflight.Group

	mu           sync.Mutex
	resolver     *source.Resolver
	store        *sector.Store
	pages        map[int]source.Page
	chunkPages   map[sector.Key]int
	tilesReady   int64
	tilesErrored int64
}

// New creates a Canvas, validating configuration eagerly.
func New(opts Options) (*Canvas, error) {
	if opts.Fetcher == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "fetcher is required")
	}
	if opts.Resolver == nil {
		opts.Resolver = source.NewResolver()
	}
	if opts.Store == nil {
		st, err := sector.New(sector.Options{})
		if err != nil {
			return nil, err
		}
		opts.Store = st
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.PrefetchMargin == 0 {
		opts.PrefetchMargin = DefaultPrefetchMargin
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Canvas{
		fetcher:    opts.Fetcher,
		seed:       opts.Seed,
		margin:     opts.PrefetchMargin,
		logger:     opts.Logger,
		resolver:   opts.Resolver,
		store:      opts.Store,
		pages:      make(map[int]source.Page),
		chunkPages: make(map[sector.Key]int),
	}, nil
}

// ResolveTile resolves a single grid cell, fetching and populating its
// chunk's sector as needed.
func (c *Canvas) ResolveTile(ctx context.Context, col, row int64) (Tile, error) {
	if !coord.InRange(col, row) {
		return Tile{}, errors.New(errors.ErrCodeInvalidGeometry, "coordinate (%d, %d) out of range", col, row)
	}
	chunkCol, chunkRow := coord.ChunkOf(col, row, c.store.ChunkSize())
	if err := c.populateChunk(ctx, chunkCol, chunkRow); err != nil {
		return Tile{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sec, _ := c.store.GetOrCreate(chunkCol, chunkRow)
	return c.tileOf(sec, col, row), nil
}

// ResolveRect resolves every cell in the inclusive rectangle, chunk by
// chunk. One failing page fails the whole call; tiles already resolved stay
// resolved for the retry.
func (c *Canvas) ResolveRect(ctx context.Context, minCol, minRow, maxCol, maxRow int64) ([]Tile, error) {
	if minCol > maxCol || minRow > maxRow {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "empty rectangle (%d,%d)..(%d,%d)", minCol, minRow, maxCol, maxRow)
	}
	if !coord.InRange(minCol, minRow) || !coord.InRange(maxCol, maxRow) {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "rectangle exceeds coordinate range")
	}

	size := int64(c.store.ChunkSize())
	loC, loR := coord.ChunkOf(minCol, minRow, c.store.ChunkSize())
	hiC, hiR := coord.ChunkOf(maxCol, maxRow, c.store.ChunkSize())

	for cc := loC; cc <= hiC; cc++ {
		for cr := loR; cr <= hiR; cr++ {
			if err := c.populateChunk(ctx, cc, cr); err != nil {
				return nil, err
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Tile, 0, (maxCol-minCol+1)*(maxRow-minRow+1))
	for cc := loC; cc <= hiC; cc++ {
		for cr := loR; cr <= hiR; cr++ {
			sec, _ := c.store.GetOrCreate(cc, cr)
			for col := max(minCol, cc*size); col <= min(maxCol, cc*size+size-1); col++ {
				for row := max(minRow, cr*size); row <= min(maxRow, cr*size+size-1); row++ {
					out = append(out, c.tileOf(sec, col, row))
				}
			}
		}
	}
	return out, nil
}

// Stats returns a snapshot of canvas activity.
func (c *Canvas) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store.Bounds()
	return Stats{
		Sectors:      c.store.Len(),
		Bounds:       b,
		HasBounds:    ok,
		PagesLoaded:  len(c.pages),
		TilesReady:   c.tilesReady,
		TilesErrored: c.tilesErrored,
	}
}

// populateChunk makes the chunk's sector resident and mapped. The page
// fetch runs outside the lock; population re-acquires it, so an eviction
// between the two phases just means repopulating a fresh sector.
func (c *Canvas) populateChunk(ctx context.Context, chunkCol, chunkRow int64) error {
	c.mu.Lock()
	sec, _ := c.store.GetOrCreate(chunkCol, chunkRow)
	page := c.resolver.Resolve(chunkCol, chunkRow)
	done := !sec.HasEmpty()
	nearEdge := c.store.NearEdge(chunkCol, chunkRow, c.margin)
	c.mu.Unlock()

	if done {
		c.maybePrefetch(chunkCol, chunkRow, nearEdge)
		return nil
	}

	pg, err := c.fetchPage(ctx, page)
	if err != nil {
		return err
	}

	c.mu.Lock()
	sec, _ = c.store.GetOrCreate(chunkCol, chunkRow)
	ready, errored := c.store.EnsurePopulated(sec, len(pg.Records), c.seed)
	c.chunkPages[sector.Key{Col: chunkCol, Row: chunkRow}] = page
	c.tilesReady += int64(ready)
	c.tilesErrored += int64(errored)
	c.mu.Unlock()

	c.logger.Debug("chunk populated",
		"chunk_col", chunkCol,
		"chunk_row", chunkRow,
		"page", page,
		"pool_size", len(pg.Records),
		"ready", ready,
		"errored", errored,
	)
	c.maybePrefetch(chunkCol, chunkRow, nearEdge)
	return nil
}

// fetchPage returns a decoded backend page, deduplicating concurrent
// fetches of the same page number and memoizing successes.
func (c *Canvas) fetchPage(ctx context.Context, page int) (source.Page, error) {
	c.mu.Lock()
	if pg, ok := c.pages[page]; ok {
		c.mu.Unlock()
		return pg, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(strconv.Itoa(page), func() (any, error) {
		pg, err := c.fetcher.FetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.resolver.Observe(pg.TotalPages)
		c.pages[page] = pg
		c.mu.Unlock()
		return pg, nil
	})
	if err != nil {
		return source.Page{}, err
	}
	return v.(source.Page), nil
}

// maybePrefetch warms the pages of the chunks just beyond the queried one
// when it sits near the resident edge. Fire and forget; failures only log.
func (c *Canvas) maybePrefetch(chunkCol, chunkRow int64, nearEdge bool) {
	if c.margin < 0 || !nearEdge {
		return
	}
	c.mu.Lock()
	pages := make(map[int]struct{})
	for dc := int64(-1); dc <= 1; dc++ {
		for dr := int64(-1); dr <= 1; dr++ {
			if dc == 0 && dr == 0 {
				continue
			}
			p := c.resolver.Resolve(chunkCol+dc, chunkRow+dr)
			if _, loaded := c.pages[p]; !loaded {
				pages[p] = struct{}{}
			}
		}
	}
	c.mu.Unlock()

	for p := range pages {
		go func(page int) {
			if _, err := c.fetchPage(context.Background(), page); err != nil {
				c.logger.Debug("prefetch failed", "page", page, "error", err)
			}
		}(p)
	}
}

// tileOf builds the external tile view. Caller holds c.mu.
//
// The page association uses the page the sector was actually populated
// from, which can differ from a fresh resolution after the backend corrects
// its page total mid-session.
func (c *Canvas) tileOf(sec *sector.Sector, col, row int64) Tile {
	t := sec.WorldTile(col, row)
	page, ok := c.chunkPages[sector.Key{Col: sec.Col, Row: sec.Row}]
	if !ok {
		page = c.resolver.Resolve(sec.Col, sec.Row)
	}
	tile := Tile{
		Col:          col,
		Row:          row,
		State:        t.State,
		ContentIndex: t.ContentIndex,
		Page:         page,
	}
	if t.State == sector.TileReady {
		if pg, ok := c.pages[page]; ok && t.ContentIndex < len(pg.Records) {
			rec := pg.Records[t.ContentIndex]
			tile.Record = &rec
		}
	}
	return tile
}
