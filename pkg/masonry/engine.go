package masonry

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftwall/pkg/errors"
	"github.com/matzehuels/driftwall/pkg/observability"
)

// Engine maintains an incremental masonry layout over a sparse set of
// columns and fills whatever a viewport query exposes.
//
// All mutation runs under a single mutex held across generator calls, so
// overlapping GetItems calls are serialized in arrival order and never
// interleave column mutations. A failed or partially filled query releases
// the lock normally; the next query retries whatever is still missing.
type Engine struct {
	opts   Options
	logger *log.Logger

	mu          sync.Mutex
	cols        map[int]*column
	minIdx      int
	maxIdx      int
	initialized bool
	lastView    Viewport
}

// New creates an Engine, validating configuration eagerly.
func New(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		opts:   opts,
		logger: opts.Logger,
		cols:   make(map[int]*column),
	}, nil
}

// stride is the horizontal distance between column origins.
func (e *Engine) stride() float64 { return e.opts.ColumnWidth + e.opts.ColumnGap }

// columnX returns the world x of column idx's left edge.
func (e *Engine) columnX(idx int) float64 {
	return e.opts.OriginX + float64(idx)*e.stride()
}

// columnRange returns the inclusive index range of columns intersecting
// [minX, maxX].
func (e *Engine) columnRange(minX, maxX float64) (int, int) {
	lo := int(math.Ceil((minX - e.opts.ColumnWidth - e.opts.OriginX) / e.stride()))
	hi := int(math.Floor((maxX - e.opts.OriginX) / e.stride()))
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// GetItems materializes every column intersecting view plus overscan,
// extends them to the overscanned borders, and returns copies of the items
// intersecting that region, ordered by column then y.
//
// Borders are processed in a fixed order per query: top extension, then new
// columns exposed on the right, then on the left, then bottom extension.
// Repeating an unchanged viewport issues no generator calls.
func (e *Engine) GetItems(ctx context.Context, view Viewport) ([]Item, error) {
	if !view.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidViewport, "viewport must have positive finite extent, got %+v", view)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	hooks := observability.Engine()
	hooks.OnFillStart(ctx, observability.Rect(view))
	start := time.Now()

	minX := view.X - e.opts.OverscanX
	maxX := view.X + view.Width + e.opts.OverscanX
	topB := view.Y - e.opts.OverscanY
	botB := view.Y + view.Height + e.opts.OverscanY
	lo, hi := e.columnRange(minX, maxX)

	side := e.panAnchor(view)
	placed := 0

	if !e.initialized {
		for idx := lo; idx <= hi; idx++ {
			placed += e.fillColumn(ctx, e.ensureColumn(idx), topB, botB, side)
		}
		e.initialized = true
	} else {
		// Top border.
		for idx := lo; idx <= hi; idx++ {
			if col, ok := e.cols[idx]; ok {
				placed += e.extendTop(ctx, col, topB, side)
			}
		}
		// New columns on the right, then on the left.
		for idx := lo; idx <= hi; idx++ {
			if _, ok := e.cols[idx]; !ok && idx > e.maxIdx {
				placed += e.fillColumn(ctx, e.ensureColumn(idx), topB, botB, side)
			}
		}
		for idx := hi; idx >= lo; idx-- {
			if _, ok := e.cols[idx]; !ok {
				placed += e.fillColumn(ctx, e.ensureColumn(idx), topB, botB, side)
			}
		}
		// Bottom border. fillColumn also re-seeds columns left empty by an
		// earlier generator outage.
		for idx := lo; idx <= hi; idx++ {
			placed += e.fillColumn(ctx, e.cols[idx], topB, botB, side)
		}
	}

	e.lastView = view

	out := make([]Item, 0, 32)
	for idx := lo; idx <= hi; idx++ {
		if col, ok := e.cols[idx]; ok {
			out = col.visible(out, topB, botB)
		}
	}

	hooks.OnFillComplete(ctx, observability.Rect(view), placed, time.Since(start), nil)
	e.logger.Debug("viewport filled",
		"columns", hi-lo+1,
		"placed", placed,
		"returned", len(out),
	)
	return out, nil
}

// panAnchor picks the healing anchor from the viewport's vertical movement
// since the previous query. Pure horizontal movement falls back to the
// taller-neighbor tie-break.
func (e *Engine) panAnchor(view Viewport) anchor {
	if !e.initialized {
		return anchorTop
	}
	switch {
	case view.Y > e.lastView.Y:
		return anchorBottom
	case view.Y < e.lastView.Y:
		return anchorTop
	default:
		return anchorAuto
	}
}

// ensureColumn returns the column at idx, creating it and widening the known
// index span when absent.
func (e *Engine) ensureColumn(idx int) *column {
	if col, ok := e.cols[idx]; ok {
		return col
	}
	col := newColumn(idx, e.columnX(idx))
	if len(e.cols) == 0 {
		e.minIdx, e.maxIdx = idx, idx
	} else {
		if idx < e.minIdx {
			e.minIdx = idx
		}
		if idx > e.maxIdx {
			e.maxIdx = idx
		}
	}
	e.cols[idx] = col
	return col
}

// fillColumn populates an empty column from the top border downward, then
// extends it to the bottom border. Non-empty columns skip the seed step.
func (e *Engine) fillColumn(ctx context.Context, col *column, topB, botB float64, side anchor) int {
	placed := 0
	if col.empty() {
		d, h, ok := e.pull(ctx)
		if !ok {
			return placed
		}
		e.place(ctx, col, d, topB, h, side)
		placed++
	}
	return placed + e.extendBottom(ctx, col, botB, side)
}

// extendTop pulls items until the column's top edge reaches topB. A pull
// give-up leaves the remaining span for the next query.
func (e *Engine) extendTop(ctx context.Context, col *column, topB float64, side anchor) int {
	placed := 0
	for !col.empty() && col.topEdge() > topB {
		d, h, ok := e.pull(ctx)
		if !ok {
			break
		}
		e.place(ctx, col, d, col.topEdge()-e.opts.RowGap-h, h, side)
		placed++
	}
	return placed
}

// extendBottom pulls items until the column's bottom edge reaches botB.
func (e *Engine) extendBottom(ctx context.Context, col *column, botB float64, side anchor) int {
	placed := 0
	for !col.empty() && col.bottomEdge() < botB {
		d, h, ok := e.pull(ctx)
		if !ok {
			break
		}
		e.place(ctx, col, d, col.bottomEdge()+e.opts.RowGap, h, side)
		placed++
	}
	return placed
}

// place builds the world-space item and inserts it into the column.
func (e *Engine) place(ctx context.Context, col *column, d Descriptor, y, h float64, side anchor) {
	it := &Item{
		ID:      d.ID,
		X:       col.x,
		Y:       y,
		Width:   e.opts.ColumnWidth,
		Height:  h,
		Column:  col.index,
		Payload: d.Payload,
	}
	col.insert(it, side, e.opts.RowGap)
	observability.Engine().OnItemPlaced(ctx, col.index, it.Y, it.Height)
}

// pull draws the next usable descriptor from the generator, retrying failed
// calls and discarding unusable geometry up to the configured bound. The
// second return is the item height scaled to the column width.
func (e *Engine) pull(ctx context.Context) (Descriptor, float64, bool) {
	for attempt := 1; attempt <= e.opts.MaxRetries; attempt++ {
		d, err := e.opts.Generator.Next(ctx)
		if err != nil {
			e.logger.Warn("generator call failed",
				"attempt", attempt,
				"error", err,
			)
			continue
		}
		h := scaledHeight(e.opts.ColumnWidth, d)
		if h == 0 {
			observability.Engine().OnItemDiscarded(ctx, d.ID)
			e.logger.Warn("discarding item with unusable geometry",
				"id", d.ID,
				"width", d.Width,
				"height", d.Height,
			)
			continue
		}
		return d, h, true
	}
	e.logger.Warn("insertion point abandoned after retries", "retries", e.opts.MaxRetries)
	return Descriptor{}, 0, false
}

// =============================================================================
// Inspection
// =============================================================================

// ColumnSnapshot is a read-only copy of one column's state.
type ColumnSnapshot struct {
	Index int
	X     float64
	Items []Item
}

// Snapshot returns copies of every column ordered by index. Callers may not
// mutate engine state through the result.
func (e *Engine) Snapshot() []ColumnSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ColumnSnapshot, 0, len(e.cols))
	for _, col := range e.cols {
		snap := ColumnSnapshot{Index: col.index, X: col.x, Items: make([]Item, len(col.items))}
		for i, it := range col.items {
			snap.Items[i] = *it
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Items returns a flat copy of every placed item, ordered by column then y.
func (e *Engine) Items() []Item {
	var out []Item
	for _, col := range e.Snapshot() {
		out = append(out, col.Items...)
	}
	return out
}
