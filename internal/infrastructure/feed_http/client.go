package feed_http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/cctray-watcher/internal/domain"
)

// Client implements the Fetcher port over HTTP. Transient failures (429,
// 5xx, network errors) are retried with exponential backoff here, inside the
// transport adapter; the synchronizer above never retries. Status codes are
// always reported as codes, even when retrying gave up on one, so the caller
// can map them uniformly.
type Client struct {
	hc *http.Client

	maxElapsed time.Duration
}

func New(timeout time.Duration) *Client {
	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		hc:         &http.Client{Transport: tr, Timeout: timeout},
		maxElapsed: 5 * time.Second,
	}
}

// statusError marks a retryable HTTP status so exhaustion can still surface
// the code instead of an opaque error.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string { return fmt.Sprintf("feed %s", e.status) }

func (c *Client) Fetch(ctx context.Context, fr domain.FeedRequest) ([]byte, int, error) {
	var (
		body []byte
		code int
	)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fr.URL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if fr.Authorization != "" {
			req.Header.Set("Authorization", fr.Authorization)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}

		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if sec, _ := strconv.Atoi(ra); sec > 0 {
					select {
					case <-time.After(time.Duration(sec) * time.Second):
					case <-ctx.Done():
						return backoff.Permanent(ctx.Err())
					}
				}
			}
			return &statusError{code: resp.StatusCode, status: resp.Status}
		}

		if resp.StatusCode >= 500 {
			return &statusError{code: resp.StatusCode, status: resp.Status}
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		body = b
		code = resp.StatusCode
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = c.maxElapsed

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, se.code, nil
		}
		return nil, 0, err
	}
	return body, code, nil
}
