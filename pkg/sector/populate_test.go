package sector

import "testing"

func TestEnsurePopulated(t *testing.T) {
	s := mustStore(t, Options{ChunkSize: 4, MaxSectors: 8})
	sec, _ := s.GetOrCreate(2, -3)

	ready, errored := s.EnsurePopulated(sec, 120, 42)
	if ready != 16 {
		t.Errorf("ready = %d, want 16", ready)
	}
	if errored != 0 {
		t.Errorf("errored = %d, want 0", errored)
	}

	for localRow := 0; localRow < 4; localRow++ {
		for localCol := 0; localCol < 4; localCol++ {
			tile := sec.Tile(localCol, localRow)
			if tile.State != TileReady {
				t.Fatalf("tile (%d,%d) state = %v, want ready", localCol, localRow, tile.State)
			}
			if tile.ContentIndex < 0 || tile.ContentIndex >= 120 {
				t.Fatalf("tile (%d,%d) index = %d, out of pool", localCol, localRow, tile.ContentIndex)
			}
		}
	}
}

func TestEnsurePopulatedIdempotent(t *testing.T) {
	s := mustStore(t, Options{ChunkSize: 4, MaxSectors: 8})
	sec, _ := s.GetOrCreate(0, 0)

	s.EnsurePopulated(sec, 120, 42)
	before := sec.Snapshot()

	ready, errored := s.EnsurePopulated(sec, 120, 42)
	if ready != 0 || errored != 0 {
		t.Errorf("second populate did work: ready=%d errored=%d", ready, errored)
	}

	after := sec.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("tile %d changed across idempotent populate: %+v → %+v", i, before[i], after[i])
		}
	}
}

// TestEnsurePopulatedStableUnderGrowth checks the consistent-hashing
// contract end to end: tiles resolved against a smaller pool keep their
// index when the pool grows, because ready tiles are never re-mapped.
func TestEnsurePopulatedStableUnderGrowth(t *testing.T) {
	s := mustStore(t, Options{ChunkSize: 8, MaxSectors: 8})
	sec, _ := s.GetOrCreate(1, 1)

	s.EnsurePopulated(sec, 50, 42)
	before := sec.Snapshot()

	s.EnsurePopulated(sec, 500, 42)
	after := sec.Snapshot()

	for i := range before {
		if before[i].ContentIndex != after[i].ContentIndex {
			t.Fatalf("tile %d remapped on pool growth: %d → %d",
				i, before[i].ContentIndex, after[i].ContentIndex)
		}
	}
}

func TestEnsurePopulatedEmptyPool(t *testing.T) {
	s := mustStore(t, Options{ChunkSize: 4, MaxSectors: 8})
	sec, _ := s.GetOrCreate(0, 0)

	ready, errored := s.EnsurePopulated(sec, 0, 42)
	if ready != 0 || errored != 0 {
		t.Errorf("populate with empty pool did work: ready=%d errored=%d", ready, errored)
	}
	if sec.Tile(0, 0).State != TileEmpty {
		t.Error("tiles should stay empty with no pool")
	}
}

func TestEnsurePopulatedPoolShrink(t *testing.T) {
	s := mustStore(t, Options{ChunkSize: 8, MaxSectors: 8})
	sec, _ := s.GetOrCreate(0, 0)

	s.EnsurePopulated(sec, 1000, 42)

	// Shrink hard enough that some resolved indexes are now out of range.
	_, errored := s.EnsurePopulated(sec, 2, 42)
	if errored == 0 {
		t.Fatal("expected some tiles to error after pool shrink")
	}

	sawError := false
	for _, tile := range sec.Snapshot() {
		switch tile.State {
		case TileError:
			sawError = true
		case TileReady:
			if tile.ContentIndex >= 2 {
				t.Fatalf("ready tile with index %d outside shrunken pool", tile.ContentIndex)
			}
		}
	}
	if !sawError {
		t.Error("expected at least one errored tile")
	}

	// Errored tiles must not silently recover on the next populate.
	beforeErrors := 0
	for _, tile := range sec.Snapshot() {
		if tile.State == TileError {
			beforeErrors++
		}
	}
	s.EnsurePopulated(sec, 1000, 42)
	afterErrors := 0
	for _, tile := range sec.Snapshot() {
		if tile.State == TileError {
			afterErrors++
		}
	}
	if afterErrors != beforeErrors {
		t.Errorf("errored tiles changed on repopulate: %d → %d", beforeErrors, afterErrors)
	}
}
