package masonry

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/driftwall/pkg/errors"
)

// cycleGen yields fixed natural sizes cyclically under fresh ids.
type cycleGen struct {
	sizes [][2]float64
	n     int
	calls int
}

func (g *cycleGen) Next(ctx context.Context) (Descriptor, error) {
	g.calls++
	s := g.sizes[g.n%len(g.sizes)]
	g.n++
	return Descriptor{
		ID:     fmt.Sprintf("item-%d", g.n),
		Width:  s[0],
		Height: s[1],
	}, nil
}

func fourImages() *cycleGen {
	return &cycleGen{sizes: [][2]float64{{150, 200}, {200, 120}, {100, 180}, {260, 200}}}
}

func newTestEngine(t *testing.T, gen Generator) *Engine {
	t.Helper()
	e, err := New(Options{
		Generator:   gen,
		ColumnWidth: 100,
		ColumnGap:   10,
		RowGap:      10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func checkEngineGaps(t *testing.T, e *Engine) {
	t.Helper()
	const eps = 1e-9
	for _, col := range e.Snapshot() {
		for i := 1; i < len(col.Items); i++ {
			a, b := col.Items[i-1], col.Items[i]
			if gap := b.Y - a.Bottom(); gap < 10-eps {
				t.Fatalf("column %d: gap %v between %q and %q, want >= 10", col.Index, gap, a.ID, b.ID)
			}
		}
	}
}

func TestEngineValidation(t *testing.T) {
	gen := fourImages()
	tests := []struct {
		name string
		opts Options
	}{
		{"missing generator", Options{ColumnWidth: 100}},
		{"zero column width", Options{Generator: gen}},
		{"negative column width", Options{Generator: gen, ColumnWidth: -5}},
		{"negative row gap", Options{Generator: gen, ColumnWidth: 100, RowGap: -1}},
		{"negative column gap", Options{Generator: gen, ColumnWidth: 100, ColumnGap: -1}},
		{"negative retry bound", Options{Generator: gen, ColumnWidth: 100, MaxRetries: -2}},
		{"NaN column width", Options{Generator: gen, ColumnWidth: math.NaN()}},
		{"infinite overscan", Options{Generator: gen, ColumnWidth: 100, OverscanY: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestEngineRejectsBadViewport(t *testing.T) {
	e := newTestEngine(t, fourImages())
	for _, view := range []Viewport{
		{Width: 0, Height: 100},
		{Width: 100, Height: -1},
	} {
		if _, err := e.GetItems(context.Background(), view); !errors.Is(err, errors.ErrCodeInvalidViewport) {
			t.Errorf("view %+v: error = %v, want INVALID_VIEWPORT", view, err)
		}
	}
}

func TestEngineInitialFill(t *testing.T) {
	e := newTestEngine(t, fourImages())

	items, err := e.GetItems(context.Background(), Viewport{X: 0, Y: 0, Width: 220, Height: 220})
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("no items placed")
	}

	perColumn := make(map[int]int)
	for _, it := range items {
		perColumn[it.Column]++
		if it.Width != 100 {
			t.Errorf("item %q width = %v, want 100", it.ID, it.Width)
		}
	}
	if len(perColumn) < 2 {
		t.Fatalf("items span %d columns, want at least 2", len(perColumn))
	}
	for idx, n := range perColumn {
		if n == 0 {
			t.Errorf("column %d is empty", idx)
		}
	}
	checkEngineGaps(t, e)
}

func TestEngineCoversViewport(t *testing.T) {
	e := newTestEngine(t, fourImages())
	view := Viewport{X: 0, Y: 0, Width: 220, Height: 220}
	if _, err := e.GetItems(context.Background(), view); err != nil {
		t.Fatalf("GetItems: %v", err)
	}

	// Every materialized column's vertical span must run past the viewport
	// plus overscan on both sides.
	for _, col := range e.Snapshot() {
		if len(col.Items) == 0 {
			t.Fatalf("column %d empty after fill", col.Index)
		}
		top := col.Items[0].Y
		bottom := col.Items[len(col.Items)-1].Bottom()
		if top > view.Y-DefaultOverscanY {
			t.Errorf("column %d top = %v, want <= %v", col.Index, top, view.Y-DefaultOverscanY)
		}
		if bottom < view.Y+view.Height+DefaultOverscanY {
			t.Errorf("column %d bottom = %v, want >= %v", col.Index, bottom, view.Y+view.Height+DefaultOverscanY)
		}
	}
}

func TestEngineIdempotentRequery(t *testing.T) {
	gen := fourImages()
	e := newTestEngine(t, gen)
	view := Viewport{X: 0, Y: 0, Width: 220, Height: 220}
	ctx := context.Background()

	first, err := e.GetItems(ctx, view)
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	callsAfterFirst := gen.calls

	second, err := e.GetItems(ctx, view)
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if gen.calls != callsAfterFirst {
		t.Errorf("second identical query issued %d generator calls, want 0", gen.calls-callsAfterFirst)
	}
	if len(second) != len(first) {
		t.Errorf("second query returned %d items, first %d", len(second), len(first))
	}
}

func TestEngineExtendsUpward(t *testing.T) {
	e := newTestEngine(t, fourImages())
	ctx := context.Background()

	if _, err := e.GetItems(ctx, Viewport{X: 0, Y: 0, Width: 220, Height: 220}); err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	items, err := e.GetItems(ctx, Viewport{X: 0, Y: -250, Width: 220, Height: 220})
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}

	negative := false
	for _, it := range items {
		if it.Y < 0 {
			negative = true
			break
		}
	}
	if !negative {
		t.Error("no item with negative y after panning up")
	}
	checkEngineGaps(t, e)
}

func TestEngineExtendsRight(t *testing.T) {
	e := newTestEngine(t, fourImages())
	ctx := context.Background()

	if _, err := e.GetItems(ctx, Viewport{X: 0, Y: 0, Width: 220, Height: 220}); err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	items, err := e.GetItems(ctx, Viewport{X: 500, Y: 0, Width: 220, Height: 220})
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}

	maxCol := 0
	for _, it := range items {
		if it.Column > maxCol {
			maxCol = it.Column
		}
	}
	if maxCol < 4 {
		t.Errorf("max column after panning right = %d, want >= 4", maxCol)
	}
	checkEngineGaps(t, e)
}

func TestEngineGapInvariantUnderRoam(t *testing.T) {
	e := newTestEngine(t, fourImages())
	ctx := context.Background()

	moves := []Viewport{
		{X: 0, Y: 0, Width: 220, Height: 220},
		{X: 150, Y: 80, Width: 220, Height: 220},
		{X: -300, Y: -120, Width: 220, Height: 220},
		{X: -300, Y: 400, Width: 220, Height: 220},
		{X: 600, Y: 400, Width: 220, Height: 220},
		{X: 0, Y: 0, Width: 220, Height: 220},
	}
	for _, view := range moves {
		if _, err := e.GetItems(ctx, view); err != nil {
			t.Fatalf("GetItems(%+v): %v", view, err)
		}
		checkEngineGaps(t, e)
	}
}

func TestEngineStableAcrossRequery(t *testing.T) {
	// Items already placed keep position and identity when the viewport
	// returns to a previously visited spot.
	e := newTestEngine(t, fourImages())
	ctx := context.Background()
	home := Viewport{X: 0, Y: 0, Width: 220, Height: 220}

	first, err := e.GetItems(ctx, home)
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	byID := make(map[string]Item, len(first))
	for _, it := range first {
		byID[it.ID] = it
	}

	if _, err := e.GetItems(ctx, Viewport{X: 800, Y: 600, Width: 220, Height: 220}); err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	back, err := e.GetItems(ctx, home)
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}

	for _, it := range back {
		prev, ok := byID[it.ID]
		if !ok {
			continue
		}
		if prev.X != it.X || prev.Y != it.Y || prev.Height != it.Height {
			t.Errorf("item %q moved: %+v -> %+v", it.ID, prev, it)
		}
	}
}

func TestEngineDiscardsBadGeometry(t *testing.T) {
	// Every third descriptor has unusable dimensions and must be skipped
	// without aborting the fill.
	n := 0
	gen := func(ctx context.Context) (Descriptor, error) {
		n++
		if n%3 == 0 {
			return Descriptor{ID: fmt.Sprintf("bad-%d", n), Width: 0, Height: 100}, nil
		}
		return Descriptor{ID: fmt.Sprintf("good-%d", n), Width: 100, Height: 100}, nil
	}
	e := newTestEngine(t, GeneratorFunc(gen))

	items, err := e.GetItems(context.Background(), Viewport{X: 0, Y: 0, Width: 220, Height: 220})
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("no items placed")
	}
	for _, it := range items {
		if it.Height != 100 {
			t.Errorf("item %q height = %v, want 100", it.ID, it.Height)
		}
		if it.ID[:4] == "bad-" {
			t.Errorf("unusable item %q was placed", it.ID)
		}
	}
}

func TestEngineSurvivesFailingGenerator(t *testing.T) {
	// A permanently failing generator yields an empty result, not an error,
	// and the engine stays usable once the generator recovers.
	failing := true
	n := 0
	gen := func(ctx context.Context) (Descriptor, error) {
		if failing {
			return Descriptor{}, errors.New(errors.ErrCodeNetwork, "backend down")
		}
		n++
		return Descriptor{ID: fmt.Sprintf("item-%d", n), Width: 100, Height: 100}, nil
	}
	e := newTestEngine(t, GeneratorFunc(gen))
	ctx := context.Background()
	view := Viewport{X: 0, Y: 0, Width: 220, Height: 220}

	items, err := e.GetItems(ctx, view)
	if err != nil {
		t.Fatalf("GetItems during outage: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("placed %d items during outage, want 0", len(items))
	}

	failing = false
	items, err = e.GetItems(ctx, view)
	if err != nil {
		t.Fatalf("GetItems after recovery: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("no items placed after generator recovered")
	}
}

func TestEngineSnapshotIsACopy(t *testing.T) {
	e := newTestEngine(t, fourImages())
	if _, err := e.GetItems(context.Background(), Viewport{X: 0, Y: 0, Width: 220, Height: 220}); err != nil {
		t.Fatalf("GetItems: %v", err)
	}

	snap := e.Snapshot()
	if len(snap) == 0 || len(snap[0].Items) == 0 {
		t.Fatal("empty snapshot")
	}
	snap[0].Items[0].Y = -99999

	again := e.Snapshot()
	if again[0].Items[0].Y == -99999 {
		t.Error("snapshot mutation leaked into engine state")
	}
}

func TestScaledHeight(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want float64
	}{
		{"landscape", Descriptor{Width: 150, Height: 200}, 133},
		{"wide", Descriptor{Width: 200, Height: 120}, 60},
		{"square fit", Descriptor{Width: 100, Height: 180}, 180},
		{"tiny", Descriptor{Width: 10000, Height: 1}, 1},
		{"zero width", Descriptor{Width: 0, Height: 100}, 0},
		{"negative height", Descriptor{Width: 100, Height: -5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scaledHeight(100, tt.d); got != tt.want {
				t.Errorf("scaledHeight = %v, want %v", got, tt.want)
			}
		})
	}
}
