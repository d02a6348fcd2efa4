package source

import (
	"context"
	"encoding/json"
)

// Record is one item of the remote collection. ID, Width, and Height are
// the only fields the engine interprets; Payload preserves the full record
// JSON for the rendering surface.
type Record struct {
	ID      string          `json:"id"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Payload json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the raw record bytes.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Record(p)
	r.Payload = append([]byte(nil), data...)
	return nil
}

// Page is one backend page response.
type Page struct {
	Records    []Record `json:"records"`
	TotalPages int      `json:"total_pages"`

	// Number is the 1-based page number that was requested. Set by the
	// fetcher, not part of the wire shape.
	Number int `json:"-"`
}

// Fetcher retrieves one backend page. Page numbers are 1-based.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, page int) (Page, error)

// FetchPage calls the wrapped function.
func (f FetcherFunc) FetchPage(ctx context.Context, page int) (Page, error) {
	return f(ctx, page)
}
