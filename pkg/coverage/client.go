// Package coverage provides a client for the mobile network coverage lookup API.
package coverage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the origin of a locally running coverage service.
const DefaultBaseURL = "http://localhost:8000"

// Client looks up network coverage for a free-form address.
type Client interface {
	// Lookup issues one GET <base-url>/coverage?address=<address> and returns
	// the decoded JSON object.
	Lookup(ctx context.Context, address string) (*Payload, error)
}

// Option configures the coverage client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
// A zero duration disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit throttles outgoing lookups to rps requests per second.
// A non-positive rps removes the limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a coverage client rooted at baseURL. An empty baseURL
// falls back to DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// coverageURL builds the lookup URL. The address is passed through as-is;
// only the standard query encoding is applied.
func (c *httpClient) coverageURL(address string) string {
	params := url.Values{"address": {address}}
	return c.baseURL + "/coverage?" + params.Encode()
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) Lookup(ctx context.Context, address string) (*Payload, error) {
	payload, err := c.lookup(ctx, address)
	if err != nil {
		zap.L().Error("coverage: lookup failed",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, err
	}
	return payload, nil
}

func (c *httpClient) lookup(ctx context.Context, address string) (*Payload, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "coverage: rate limit")
	}

	reqURL := c.coverageURL(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "coverage: create request")
	}
	req.Header.Set("Accept", "application/json")

	zap.L().Debug("coverage: request", zap.String("url", reqURL))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "coverage: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "coverage: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, body)
	}

	payload, err := NewPayload(body)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchCoverage looks up address and reports any failure as a nil payload.
// The error has already been logged by the client.
func FetchCoverage(ctx context.Context, c Client, address string) *Payload {
	payload, err := c.Lookup(ctx, address)
	if err != nil {
		return nil
	}
	return payload
}
