package canvas

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/driftwall/pkg/errors"
	"github.com/matzehuels/driftwall/pkg/sector"
	"github.com/matzehuels/driftwall/pkg/source"
)

// fakeBackend serves synthetic pages with a fixed record count and counts
// fetches per page.
type fakeBackend struct {
	totalPages int
	perPage    int
	delay      time.Duration

	mu      sync.Mutex
	fetches map[int]int
}

func newFakeBackend(totalPages, perPage int) *fakeBackend {
	return &fakeBackend{totalPages: totalPages, perPage: perPage, fetches: make(map[int]int)}
}

func (b *fakeBackend) FetchPage(ctx context.Context, page int) (source.Page, error) {
	b.mu.Lock()
	b.fetches[page]++
	b.mu.Unlock()
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	p := source.Page{TotalPages: b.totalPages, Number: page}
	for i := 0; i < b.perPage; i++ {
		p.Records = append(p.Records, source.Record{
			ID:     fmt.Sprintf("p%d-r%d", page, i),
			Width:  400,
			Height: 300,
		})
	}
	return p, nil
}

func (b *fakeBackend) fetchCount(page int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches[page]
}

func (b *fakeBackend) totalFetches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.fetches {
		n += c
	}
	return n
}

func newTestCanvas(t *testing.T, backend source.Fetcher) *Canvas {
	t.Helper()
	c, err := New(Options{Fetcher: backend, PrefetchMargin: -1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestCanvasRequiresFetcher(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestResolveTile(t *testing.T) {
	backend := newFakeBackend(50, 30)
	c := newTestCanvas(t, backend)

	tile, err := c.ResolveTile(context.Background(), 10, -7)
	if err != nil {
		t.Fatalf("ResolveTile: %v", err)
	}
	if tile.State != sector.TileReady {
		t.Fatalf("state = %v, want ready", tile.State)
	}
	if tile.ContentIndex < 0 || tile.ContentIndex >= 30 {
		t.Errorf("content index %d out of pool range", tile.ContentIndex)
	}
	if tile.Record == nil {
		t.Fatal("ready tile without record")
	}
	if want := fmt.Sprintf("p%d-r%d", tile.Page, tile.ContentIndex); tile.Record.ID != want {
		t.Errorf("record id = %q, want %q", tile.Record.ID, want)
	}
}

func TestResolveTileStable(t *testing.T) {
	backend := newFakeBackend(50, 30)
	c := newTestCanvas(t, backend)
	ctx := context.Background()

	first, err := c.ResolveTile(ctx, -3, 12)
	if err != nil {
		t.Fatalf("ResolveTile: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.ResolveTile(ctx, -3, 12)
		if err != nil {
			t.Fatalf("ResolveTile: %v", err)
		}
		if again.ContentIndex != first.ContentIndex {
			t.Fatalf("content index changed: %d -> %d", first.ContentIndex, again.ContentIndex)
		}
	}
}

func TestResolveTileOutOfRange(t *testing.T) {
	c := newTestCanvas(t, newFakeBackend(50, 30))
	if _, err := c.ResolveTile(context.Background(), 1<<40, 0); !errors.Is(err, errors.ErrCodeInvalidGeometry) {
		t.Errorf("error = %v, want INVALID_GEOMETRY", err)
	}
}

func TestResolveRect(t *testing.T) {
	backend := newFakeBackend(50, 30)
	c := newTestCanvas(t, backend)

	// A rectangle straddling the chunk origin touches four chunks.
	tiles, err := c.ResolveRect(context.Background(), -2, -2, 2, 2)
	if err != nil {
		t.Fatalf("ResolveRect: %v", err)
	}
	if len(tiles) != 25 {
		t.Fatalf("got %d tiles, want 25", len(tiles))
	}
	for _, tile := range tiles {
		if tile.State != sector.TileReady {
			t.Errorf("tile (%d,%d) state = %v, want ready", tile.Col, tile.Row, tile.State)
		}
	}

	stats := c.Stats()
	if stats.Sectors != 4 {
		t.Errorf("sectors = %d, want 4", stats.Sectors)
	}
	if stats.TilesReady != 4*16*16 {
		t.Errorf("tiles ready = %d, want %d", stats.TilesReady, 4*16*16)
	}
}

func TestResolveRectEmpty(t *testing.T) {
	c := newTestCanvas(t, newFakeBackend(50, 30))
	if _, err := c.ResolveRect(context.Background(), 5, 5, 4, 9); !errors.Is(err, errors.ErrCodeInvalidGeometry) {
		t.Errorf("error = %v, want INVALID_GEOMETRY", err)
	}
}

func TestPageFetchedOncePerChunk(t *testing.T) {
	backend := newFakeBackend(50, 30)
	c := newTestCanvas(t, backend)
	ctx := context.Background()

	// All tiles of one chunk share one page fetch.
	for col := int64(0); col < 16; col++ {
		if _, err := c.ResolveTile(ctx, col, 0); err != nil {
			t.Fatalf("ResolveTile: %v", err)
		}
	}
	if got := backend.totalFetches(); got != 1 {
		t.Errorf("backend fetches = %d, want 1", got)
	}
}

func TestConcurrentResolveDeduplicates(t *testing.T) {
	backend := newFakeBackend(50, 30)
	backend.delay = 20 * time.Millisecond
	c := newTestCanvas(t, backend)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			if _, err := c.ResolveTile(context.Background(), n, n); err != nil {
				failures.Add(1)
			}
		}(int64(i))
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d resolves failed", failures.Load())
	}
	// All 16 coordinates live in chunk (0,0): one page, and the concurrent
	// fetches for it collapse to a single backend call.
	if got := backend.totalFetches(); got != 1 {
		t.Errorf("backend fetches = %d, want 1", got)
	}
}

func TestResolveSurvivesBackendOutage(t *testing.T) {
	calls := 0
	flaky := source.FetcherFunc(func(ctx context.Context, page int) (source.Page, error) {
		calls++
		if calls == 1 {
			return source.Page{}, errors.New(errors.ErrCodeNetwork, "backend down")
		}
		return source.Page{
			TotalPages: 50,
			Records:    []source.Record{{ID: "r0", Width: 10, Height: 10}},
			Number:     page,
		}, nil
	})
	c := newTestCanvas(t, flaky)
	ctx := context.Background()

	if _, err := c.ResolveTile(ctx, 0, 0); err == nil {
		t.Fatal("expected error during outage")
	}
	tile, err := c.ResolveTile(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ResolveTile after recovery: %v", err)
	}
	if tile.State != sector.TileReady {
		t.Errorf("state = %v, want ready after recovery", tile.State)
	}
}

func TestResolveRoamingStaysBounded(t *testing.T) {
	backend := newFakeBackend(200, 10)
	store, err := sector.New(sector.Options{MaxSectors: 8})
	if err != nil {
		t.Fatalf("sector.New: %v", err)
	}
	c, err := New(Options{Fetcher: backend, Store: store, PrefetchMargin: -1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	for i := int64(0); i < 40; i++ {
		if _, err := c.ResolveTile(ctx, i*16, i*16); err != nil {
			t.Fatalf("ResolveTile %d: %v", i, err)
		}
	}
	if got := c.Stats().Sectors; got > 8 {
		t.Errorf("resident sectors = %d, want <= 8", got)
	}
}

func TestEvictedChunkResolvesIdentically(t *testing.T) {
	backend := newFakeBackend(200, 10)
	store, err := sector.New(sector.Options{MaxSectors: 2})
	if err != nil {
		t.Fatalf("sector.New: %v", err)
	}
	c, err := New(Options{Fetcher: backend, Store: store, PrefetchMargin: -1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	before, err := c.ResolveTile(ctx, 5, 5)
	if err != nil {
		t.Fatalf("ResolveTile: %v", err)
	}
	// Roam far enough to evict chunk (0,0).
	for i := int64(1); i <= 4; i++ {
		if _, err := c.ResolveTile(ctx, i*100, i*100); err != nil {
			t.Fatalf("ResolveTile: %v", err)
		}
	}
	after, err := c.ResolveTile(ctx, 5, 5)
	if err != nil {
		t.Fatalf("ResolveTile: %v", err)
	}
	if after.ContentIndex != before.ContentIndex || after.Page != before.Page {
		t.Errorf("tile changed after eviction: %+v -> %+v", before, after)
	}
}
