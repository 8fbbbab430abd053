package marta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds how much of a feed response is read
const maxBodyBytes = 8 << 20

// Client polls the MARTA rail realtime endpoints in priority order
type Client struct {
	endpoints []string
	userAgent string
	client    *http.Client
}

// NewClient creates a client that tries endpoints in the given order, each
// bounded by timeout
func NewClient(endpoints []string, timeout time.Duration) *Client {
	return &Client{
		endpoints: endpoints,
		userAgent: DefaultUserAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithUserAgent overrides the browser User-Agent sent upstream
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// FetchLive returns the records from the first endpoint that answers 200
// with a recognizable JSON shape. Endpoint failures are logged and skipped;
// if none succeeds the error wraps ErrUpstreamUnavailable.
func (c *Client) FetchLive(ctx context.Context) ([]Record, error) {
	if len(c.endpoints) == 0 {
		return nil, fmt.Errorf("%w: no endpoints configured", ErrUpstreamUnavailable)
	}

	var lastErr error
	for i, endpoint := range c.endpoints {
		records, err := c.fetchOne(ctx, endpoint)
		if err != nil {
			log.Warn().Err(err).Int("endpoint", i).Str("host", hostOf(endpoint)).Msg("Realtime: endpoint failed")
			lastErr = err
			continue
		}
		log.Debug().Int("endpoint", i).Str("host", hostOf(endpoint)).Int("records", len(records)).Msg("Realtime: fetched feed")
		return records, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

// FetchArrivals fetches the feed and canonicalizes every record
func (c *Client) FetchArrivals(ctx context.Context) ([]Arrival, error) {
	records, err := c.FetchLive(ctx)
	if err != nil {
		return nil, err
	}
	return Canonicalize(records), nil
}

func (c *Client) fetchOne(ctx context.Context, endpoint string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	raw, err := Decode(body)
	if err != nil {
		return nil, err
	}

	return Normalize(raw)
}

// redact strips the request URL (and with it the API key) from transport errors
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "invalid-url"
	}
	return u.Host
}
