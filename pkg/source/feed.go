package source

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/driftwall/pkg/errors"
)

// Feed turns the finite paginated collection into an endless stream of
// records with process-unique ids, the contract the masonry engine needs
// from its content generator.
//
// Records are drawn page by page, wrapping around when the last page is
// reached. A record whose id was already emitted (page reuse is inevitable
// with a finite backend) is re-emitted under a fresh UUID, so content may
// repeat but ids never do. Records arriving without an id get one the same
// way.
//
// A Feed is owned by a single engine instance and is not goroutine-safe;
// construct one Feed per engine (multiple engines with independent feeds
// can coexist in one process).
type Feed struct {
	fetcher  Fetcher
	resolver *Resolver
	logger   *log.Logger

	nextPage int
	buffer   []Record
	seen     map[string]struct{}
}

// FeedOptions configures a Feed.
type FeedOptions struct {
	// Fetcher retrieves backend pages. Required.
	Fetcher Fetcher

	// Resolver supplies (and learns) the backend's page total. A private
	// one is created when nil.
	Resolver *Resolver

	// StartPage is the first page to draw from. Defaults to 1.
	StartPage int

	// Logger receives feed events. Defaults to a discard logger.
	Logger *log.Logger
}

// NewFeed creates a Feed, validating configuration eagerly.
func NewFeed(opts FeedOptions) (*Feed, error) {
	if opts.Fetcher == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "fetcher is required")
	}
	if opts.Resolver == nil {
		opts.Resolver = NewResolver()
	}
	if opts.StartPage < 1 {
		opts.StartPage = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Feed{
		fetcher:  opts.Fetcher,
		resolver: opts.Resolver,
		logger:   opts.Logger,
		nextPage: opts.StartPage,
		seen:     make(map[string]struct{}),
	}, nil
}

// Next returns one record with an id never returned before by this Feed.
// It fetches further pages as the buffer drains; a fetch failure is
// surfaced to the caller and the feed stays usable for the next call.
func (f *Feed) Next(ctx context.Context) (Record, error) {
	for len(f.buffer) == 0 {
		if err := f.fill(ctx); err != nil {
			return Record{}, err
		}
	}

	rec := f.buffer[0]
	f.buffer = f.buffer[1:]

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, dup := f.seen[rec.ID]; dup {
		rec.ID = uuid.NewString()
	}
	f.seen[rec.ID] = struct{}{}
	return rec, nil
}

// Emitted returns how many unique records the feed has handed out.
func (f *Feed) Emitted() int { return len(f.seen) }

// fill fetches the next page into the buffer, advancing and wrapping the
// page cursor against the resolver's current total.
func (f *Feed) fill(ctx context.Context) error {
	page, err := f.fetcher.FetchPage(ctx, f.nextPage)
	if err != nil {
		return errors.Wrap(errors.ErrCodeGenerator, err, "feed page %d", f.nextPage)
	}
	f.resolver.Observe(page.TotalPages)

	f.advance()

	if len(page.Records) == 0 {
		return errors.New(errors.ErrCodeGenerator, "page %d returned no records", page.Number)
	}
	f.buffer = append(f.buffer, page.Records...)
	return nil
}

// advance moves the page cursor, wrapping at the current total.
func (f *Feed) advance() {
	f.nextPage++
	if f.nextPage > f.resolver.TotalPages() {
		f.nextPage = 1
	}
}
