package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftwall/pkg/canvas"
	"github.com/matzehuels/driftwall/pkg/masonry"
	"github.com/matzehuels/driftwall/pkg/source"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	fetcher := source.FetcherFunc(func(ctx context.Context, page int) (source.Page, error) {
		p := source.Page{TotalPages: 20, Number: page}
		for i := 0; i < 12; i++ {
			p.Records = append(p.Records, source.Record{
				ID:     fmt.Sprintf("p%d-r%d", page, i),
				Width:  400,
				Height: 300,
			})
		}
		return p, nil
	})

	cv, err := canvas.New(canvas.Options{Fetcher: fetcher, PrefetchMargin: -1})
	if err != nil {
		t.Fatalf("canvas.New: %v", err)
	}

	n := 0
	gen := masonry.GeneratorFunc(func(ctx context.Context) (masonry.Descriptor, error) {
		n++
		return masonry.Descriptor{ID: fmt.Sprintf("item-%d", n), Width: 300, Height: 200}, nil
	})
	engine, err := masonry.New(masonry.Options{Generator: gen, ColumnWidth: 100, ColumnGap: 10, RowGap: 10})
	if err != nil {
		t.Fatalf("masonry.New: %v", err)
	}

	return newServer(cv, engine, log.Default())
}

func TestServeHealthz(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServeTiles(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tiles?min_col=-1&min_row=-1&max_col=1&max_row=1")
	if err != nil {
		t.Fatalf("GET /tiles: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var tiles []struct {
		Col      int64  `json:"col"`
		Row      int64  `json:"row"`
		State    string `json:"state"`
		RecordID string `json:"record_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tiles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tiles) != 9 {
		t.Fatalf("got %d tiles, want 9", len(tiles))
	}
	for _, tile := range tiles {
		if tile.State != "ready" {
			t.Errorf("tile (%d,%d) state = %q, want ready", tile.Col, tile.Row, tile.State)
		}
		if tile.RecordID == "" {
			t.Errorf("tile (%d,%d) missing record id", tile.Col, tile.Row)
		}
	}
}

func TestServeTilesBadRequest(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tiles?min_col=a")
	if err != nil {
		t.Fatalf("GET /tiles: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServeItems(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/items?x=0&y=0&width=220&height=220")
	if err != nil {
		t.Fatalf("GET /items: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var items []masonry.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) == 0 {
		t.Error("no items returned")
	}
}

func TestServeStats(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).routes())
	defer srv.Close()

	// Resolve something first so the stats are non-trivial.
	if _, err := http.Get(srv.URL + "/tiles?min_col=0&min_row=0&max_col=0&max_row=0"); err != nil {
		t.Fatalf("GET /tiles: %v", err)
	}

	resp, err := http.Get(srv.URL + "/debug/stats")
	if err != nil {
		t.Fatalf("GET /debug/stats: %v", err)
	}
	defer resp.Body.Close()

	var stats struct {
		Sectors    int   `json:"sectors"`
		TilesReady int64 `json:"tiles_ready"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Sectors != 1 || stats.TilesReady != 256 {
		t.Errorf("stats = %+v, want 1 sector and 256 ready tiles", stats)
	}
}
