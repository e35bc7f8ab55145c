package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "postcal/internal/log"
)

const (
	defaultTimeout = 20 * time.Second
	// maxBodyBytes bounds the response we are willing to decode.
	maxBodyBytes = 1 << 20
)

// FetchError is returned for any failure to obtain a decoded response:
// transport errors, non-2xx statuses and undecodable bodies.
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches delivery dates for one postal code. It makes a single
// attempt per call; callers decide what a failure means.
type Client struct {
	client     *http.Client
	endpoint   string
	postalCode string
	userAgent  string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (timeouts included).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Client for endpoint and postalCode. A non-positive
// timeout uses the 20s default.
func NewClient(endpoint, postalCode string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint:   endpoint,
		postalCode: postalCode,
		userAgent:  "postcal",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the full request URL including the postal code query.
func (c *Client) URL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("postalCode", c.postalCode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch performs one GET and decodes the JSON body.
func (c *Client) Fetch(ctx context.Context) (Response, error) {
	target, err := c.URL()
	if err != nil {
		return Response{}, &FetchError{URL: c.endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Response{}, &FetchError{URL: c.endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	appLog.Info("delivery fetch start", "endpoint", c.endpoint, "postal_code", c.postalCode)

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, &FetchError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Response{}, &FetchError{
			URL:        c.endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, &FetchError{URL: c.endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, &FetchError{URL: c.endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding body: %w", err)}
	}

	appLog.Info("delivery fetch success",
		"postal_code", c.postalCode,
		"status", resp.StatusCode,
		"has_delivery", out.Delivery.Valid,
		"upcoming_count", len(out.Upcoming.Values()),
	)
	return out, nil
}
