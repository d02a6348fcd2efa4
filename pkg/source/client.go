package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftwall/pkg/cache"
	"github.com/matzehuels/driftwall/pkg/errors"
	"github.com/matzehuels/driftwall/pkg/observability"
)

// DefaultTimeout bounds a single page request.
const DefaultTimeout = 10 * time.Second

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL is the collection endpoint; the page number is appended as
	// a "page" query parameter. Required.
	BaseURL string

	// Cache stores page responses. Defaults to a NullCache.
	Cache cache.Cache

	// Keyer generates cache keys. Defaults to the standard keyer.
	Keyer cache.Keyer

	// HTTPClient overrides the transport. Defaults to a client with
	// DefaultTimeout.
	HTTPClient *http.Client

	// Logger receives fetch events. Defaults to a discard logger.
	Logger *log.Logger
}

// Client fetches backend pages over HTTP with retry and response caching.
type Client struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	logger  *log.Logger
}

// NewClient creates a Client, validating configuration eagerly.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid base URL %q", opts.BaseURL)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Client{
		baseURL: opts.BaseURL,
		http:    opts.HTTPClient,
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		logger:  opts.Logger,
	}, nil
}

// FetchPage retrieves one 1-based page, serving from cache when possible.
// Transient failures (network errors, 5xx) are retried with backoff.
func (c *Client) FetchPage(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		return Page{}, errors.New(errors.ErrCodeInvalidConfig, "page numbers are 1-based, got %d", page)
	}

	key := c.keyer.PageKey(c.baseURL, page)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		var p Page
		if err := json.Unmarshal(data, &p); err == nil {
			observability.Cache().OnCacheHit(ctx, "page")
			p.Number = page
			return p, nil
		}
		// Corrupt entry: drop it and fall through to a fresh fetch.
		_ = c.cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "page")

	var body []byte
	err := RetryWithBackoff(ctx, func() error {
		var ferr error
		body, ferr = c.doRequest(ctx, page)
		return ferr
	})
	if err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeNetwork, err, "fetch page %d", page)
	}

	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeNetwork, err, "decode page %d", page)
	}
	p.Number = page

	if err := c.cache.Set(ctx, key, body, cache.TTLPage); err == nil {
		observability.Cache().OnCacheSet(ctx, "page", len(body))
	}
	if p.TotalPages > 0 {
		if meta, err := json.Marshal(p.TotalPages); err == nil {
			_ = c.cache.Set(ctx, c.keyer.MetaKey(c.baseURL), meta, cache.TTLMeta)
		}
	}

	c.logger.Debug("fetched page",
		"page", page,
		"records", len(p.Records),
		"total_pages", p.TotalPages)
	return p, nil
}

// CachedTotalPages reports the collection's total page count remembered
// from an earlier fetch, possibly in a previous process. Callers can seed a
// Resolver with it so the first resolutions of a session use the real total
// instead of the conservative default.
func (c *Client) CachedTotalPages(ctx context.Context) (int, bool) {
	data, hit, err := c.cache.Get(ctx, c.keyer.MetaKey(c.baseURL))
	if err != nil || !hit {
		return 0, false
	}
	var total int
	if err := json.Unmarshal(data, &total); err != nil || total < 1 {
		return 0, false
	}
	return total, true
}

func (c *Client) doRequest(ctx context.Context, page int) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observability.HTTP().OnRequest(ctx, req.Method, u.Host, u.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, u.Host, u.Path, err)
		return nil, errors.Retryable(fmt.Errorf("request page %d: %w", page, err))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "page not found")
	case code >= 500:
		return errors.Retryable(errors.New(errors.ErrCodeNetwork, "status %d", code))
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d", code)
	}
}

// Ensure Client implements Fetcher.
var _ Fetcher = (*Client)(nil)
