package masonry

import (
	"context"
	"encoding/json"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftwall/pkg/errors"
)

// Default engine configuration.
const (
	// DefaultMaxRetries bounds generator retries per insertion point.
	DefaultMaxRetries = 3

	// DefaultOverscanY is the vertical materialization margin in world
	// units added above and below the viewport.
	DefaultOverscanY = 300
)

// Descriptor is one unit of content handed out by a Generator: a natural
// size plus an opaque payload. The engine scales Width/Height to the column
// width; it never interprets Payload.
type Descriptor struct {
	ID      string
	Width   float64
	Height  float64
	Payload json.RawMessage
}

// Generator produces content descriptors on demand. Implementations must
// never return the same ID twice for the lifetime of the engine; the engine
// relies on this for item identity and does not deduplicate.
type Generator interface {
	Next(ctx context.Context) (Descriptor, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context) (Descriptor, error)

// Next calls f.
func (f GeneratorFunc) Next(ctx context.Context) (Descriptor, error) {
	return f(ctx)
}

// Item is a placed tile in world coordinates.
type Item struct {
	ID      string
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Column  int
	Payload json.RawMessage
}

// Bottom returns the item's lower edge.
func (it Item) Bottom() float64 { return it.Y + it.Height }

// Viewport is a query rectangle in world units. It is a parameter, not
// engine state.
type Viewport struct {
	X, Y, Width, Height float64
}

// Valid reports whether the viewport has positive extent and finite fields.
func (v Viewport) Valid() bool {
	for _, f := range []float64{v.X, v.Y, v.Width, v.Height} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return v.Width > 0 && v.Height > 0
}

// Options configures an Engine.
type Options struct {
	// Generator supplies content. Required.
	Generator Generator

	// ColumnWidth is the placed width of every item. Must be positive.
	ColumnWidth float64

	// ColumnGap is the horizontal spacing between columns. Must be
	// non-negative.
	ColumnGap float64

	// RowGap is the minimum vertical spacing between adjacent items in a
	// column. Must be non-negative.
	RowGap float64

	// OriginX is the world x of column 0's left edge.
	OriginX float64

	// OverscanX widens the materialized column range on both sides.
	// Defaults to one column stride.
	OverscanX float64

	// OverscanY extends column fills above and below the viewport.
	// Defaults to DefaultOverscanY.
	OverscanY float64

	// MaxRetries bounds generator pulls per insertion point when calls
	// fail or yield unusable geometry. Defaults to DefaultMaxRetries.
	MaxRetries int

	// Logger receives placement and retry events. Defaults to a discard
	// logger.
	Logger *log.Logger
}

func (o *Options) validate() error {
	if o.Generator == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "generator is required")
	}
	if err := errors.ValidatePositive("column width", o.ColumnWidth); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("column gap", o.ColumnGap); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("row gap", o.RowGap); err != nil {
		return err
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.MaxRetries < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "retry bound must be at least 1, got %d", o.MaxRetries)
	}
	if o.OverscanX == 0 {
		o.OverscanX = o.ColumnWidth + o.ColumnGap
	}
	if o.OverscanY == 0 {
		o.OverscanY = DefaultOverscanY
	}
	if err := errors.ValidateNonNegative("horizontal overscan", o.OverscanX); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("vertical overscan", o.OverscanY); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// scaledHeight maps a descriptor's natural aspect ratio onto the column
// width. Returns 0 for unusable geometry.
func scaledHeight(columnWidth float64, d Descriptor) float64 {
	if !errors.ValidDimensions(d.Width, d.Height) {
		return 0
	}
	h := math.Round(columnWidth * d.Height / d.Width)
	if h < 1 {
		h = 1
	}
	return h
}
