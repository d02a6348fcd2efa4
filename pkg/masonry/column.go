package masonry

import "sort"

// anchor selects which side of an insertion point stays fixed when gap
// healing has to shift items.
type anchor int

const (
	// anchorAuto keeps the taller of the two adjacent neighbors fixed.
	anchorAuto anchor = iota

	// anchorTop keeps the run above the insertion fixed and shifts the
	// run below downward.
	anchorTop

	// anchorBottom keeps the run below fixed and shifts the run above
	// upward.
	anchorBottom
)

// column owns the y-sorted items of one vertical strip of the canvas.
// Columns are created lazily and never destroyed.
type column struct {
	index int
	x     float64
	items []*Item
}

func newColumn(index int, x float64) *column {
	return &column{index: index, x: x}
}

func (c *column) empty() bool { return len(c.items) == 0 }

// topEdge returns the upper edge of the topmost item. Call only on
// non-empty columns.
func (c *column) topEdge() float64 { return c.items[0].Y }

// bottomEdge returns the lower edge of the bottommost item.
func (c *column) bottomEdge() float64 { return c.items[len(c.items)-1].Bottom() }

// searchY returns the index of the first item whose y is not below y.
// Binary search; columns accumulate thousands of items over a session.
func (c *column) searchY(y float64) int {
	return sort.Search(len(c.items), func(i int) bool {
		return c.items[i].Y >= y
	})
}

// insert splices it into y-order and heals any row-gap violation around the
// insertion point. Exactly one side of the insertion is shifted; side is the
// anchor that stays fixed.
func (c *column) insert(it *Item, side anchor, rowGap float64) {
	pos := c.searchY(it.Y)
	c.items = append(c.items, nil)
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = it

	side = c.resolveAnchor(pos, side)
	switch side {
	case anchorTop:
		// Items above stay; push the new item below its upper neighbor,
		// then push the run below it down as needed.
		if pos > 0 {
			if minY := c.items[pos-1].Bottom() + rowGap; it.Y < minY {
				it.Y = minY
			}
		}
		c.shiftDownFrom(pos+1, it.Bottom()+rowGap)
	case anchorBottom:
		// Items below stay; pull the new item above its lower neighbor,
		// then push the run above it up as needed.
		if pos < len(c.items)-1 {
			if maxY := c.items[pos+1].Y - rowGap - it.Height; it.Y > maxY {
				it.Y = maxY
			}
		}
		c.shiftUpFrom(pos-1, it.Y-rowGap)
	}
}

// resolveAnchor turns anchorAuto into a concrete side by keeping the taller
// adjacent neighbor fixed. Edge insertions anchor the existing run.
func (c *column) resolveAnchor(pos int, side anchor) anchor {
	if side != anchorAuto {
		return side
	}
	switch {
	case pos == 0:
		return anchorBottom
	case pos == len(c.items)-1:
		return anchorTop
	}
	above, below := c.items[pos-1], c.items[pos+1]
	if above.Height >= below.Height {
		return anchorTop
	}
	return anchorBottom
}

// shiftDownFrom pushes items[from:] down so the first of them starts no
// higher than minY, preserving existing spacing within the run.
func (c *column) shiftDownFrom(from int, minY float64) {
	if from >= len(c.items) {
		return
	}
	delta := minY - c.items[from].Y
	if delta <= 0 {
		return
	}
	for _, it := range c.items[from:] {
		it.Y += delta
	}
}

// shiftUpFrom pushes items[:to+1] up so the last of them ends no lower than
// maxBottom.
func (c *column) shiftUpFrom(to int, maxBottom float64) {
	if to < 0 {
		return
	}
	delta := c.items[to].Bottom() - maxBottom
	if delta <= 0 {
		return
	}
	for _, it := range c.items[:to+1] {
		it.Y -= delta
	}
}

// visible appends copies of the items intersecting [minY, maxY] to dst.
func (c *column) visible(dst []Item, minY, maxY float64) []Item {
	// First item whose bottom edge reaches minY.
	start := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].Bottom() >= minY
	})
	for _, it := range c.items[start:] {
		if it.Y > maxY {
			break
		}
		dst = append(dst, *it)
	}
	return dst
}
