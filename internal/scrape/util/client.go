package util

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const userAgent = "jobtrack/1.0 (+local)"

// Client is an http.Client with a per-host limiter in front. Extractors run
// sequentially, so the limiter's job is spacing requests against one host,
// not arbitrating between goroutines.
type Client struct {
	hc  *http.Client
	lim *HostLimiter
}

func NewClient(timeout time.Duration, lim *HostLimiter) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		hc:  &http.Client{Timeout: timeout},
		lim: lim,
	}
}

// Get waits for the host's rate slot, then issues the request. Callers own
// closing the body. Status >= 400 is returned as an error.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if c.lim != nil {
		if err := c.lim.WaitURL(ctx, url); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		_ = res.Body.Close()
		return nil, fmt.Errorf("status %d from %s", res.StatusCode, url)
	}
	return res, nil
}
