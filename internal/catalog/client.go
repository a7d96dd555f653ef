// Package catalog fetches the third-party product catalog and indexes it for
// enrichment. It also serves a catalog over HTTP in the same JSON shape, for
// offline runs and tests.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// maxBodyBytes caps the catalog response body.
const maxBodyBytes = 8 << 20

var (
	ErrFetch            = errors.New("catalog fetch failed")
	ErrUnexpectedStatus = errors.New("catalog returned unexpected status")
	ErrDecode           = errors.New("catalog response is not valid json")
)

// product is the wire form of one catalog entry. Brand and rating are
// missing on some products.
type product struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Brand    string   `json:"brand,omitempty"`
	Price    float64  `json:"price,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
}

// response is the envelope returned by GET /products.
type response struct {
	Products []product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

func (p product) entry() types.CatalogEntry {
	e := types.CatalogEntry{
		ID:       p.ID,
		Title:    p.Title,
		Category: p.Category,
		Brand:    p.Brand,
	}
	if p.Rating != nil {
		e.Rating = *p.Rating
		e.HasRating = true
	}
	return e
}

func toProduct(e types.CatalogEntry) product {
	p := product{ID: e.ID, Title: e.Title, Category: e.Category, Brand: e.Brand}
	if e.HasRating {
		r := e.Rating
		p.Rating = &r
	}
	return p
}

// Client performs the single catalog GET.
type Client struct {
	baseURL   string
	limit     int
	userAgent string
	client    *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a catalog client from the catalog config section.
func NewClient(cfg config.CatalogConfig, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:   cfg.URL,
		limit:     cfg.Limit,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the request URL, {base}?limit={limit}.
func (c *Client) URL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid url: %w", ErrFetch, err)
	}
	if c.limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(c.limit))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Fetch issues exactly one GET and returns the catalog entries in response
// order. It never retries.
func (c *Client) Fetch(ctx context.Context) ([]types.CatalogEntry, error) {
	target, err := c.URL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return decode(io.LimitReader(resp.Body, maxBodyBytes))
}

func decode(r io.Reader) ([]types.CatalogEntry, error) {
	var body response
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	entries := make([]types.CatalogEntry, 0, len(body.Products))
	for _, p := range body.Products {
		entries = append(entries, p.entry())
	}
	return entries, nil
}
