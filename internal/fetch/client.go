// Package fetch downloads CSV sources over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/JonMunkholm/CandleConvert/internal/config"
	"github.com/JonMunkholm/CandleConvert/internal/core"
	"github.com/JonMunkholm/CandleConvert/internal/logging"
	"github.com/go-resty/resty/v2"
)

// Options configures a Client.
type Options struct {
	Timeout      time.Duration // per attempt
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	MaxSize      int64 // bytes, 0 for no limit
}

// OptionsFromConfig maps source settings to client options.
func OptionsFromConfig(cfg config.SourceConfig) Options {
	return Options{
		Timeout:      cfg.Timeout,
		RetryCount:   cfg.RetryCount,
		RetryWait:    500 * time.Millisecond,
		RetryMaxWait: 5 * time.Second,
		MaxSize:      cfg.MaxSize,
	}
}

// Client fetches CSV bodies. Server errors and transport failures are
// retried; client errors are not.
type Client struct {
	resty   *resty.Client
	maxSize int64
}

// New creates a client.
func New(opts Options) *Client {
	rc := resty.New()
	rc.SetTimeout(opts.Timeout)
	rc.SetRetryCount(opts.RetryCount)
	rc.SetRetryWaitTime(opts.RetryWait)
	rc.SetRetryMaxWaitTime(opts.RetryMaxWait)
	rc.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return false
		}
		return err != nil || resp.StatusCode() >= 500
	})
	if opts.MaxSize > 0 {
		rc.SetResponseBodyLimit(int(opts.MaxSize))
	}
	rc.SetHeader("Accept", "text/csv, text/plain;q=0.9, */*;q=0.8")

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	rc.SetTransport(transport)

	return &Client{resty: rc, maxSize: opts.MaxSize}
}

// Fetch downloads url and returns the body. Any status other than 200 is an
// error. A body larger than the configured limit wraps core.ErrSourceTooLarge.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	logger := logging.WithFields(ctx, "url", url)
	start := time.Now()

	resp, err := c.resty.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, fmt.Errorf("fetch csv: %w: limit %d bytes", core.ErrSourceTooLarge, c.maxSize)
		}
		return nil, fmt.Errorf("fetch csv: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch csv: unexpected status %d", resp.StatusCode())
	}

	body := resp.Body()
	if c.maxSize > 0 && int64(len(body)) > c.maxSize {
		return nil, fmt.Errorf("fetch csv: %w: limit %d bytes", core.ErrSourceTooLarge, c.maxSize)
	}

	logger.Debug("csv fetched",
		"bytes", len(body),
		"attempts", resp.Request.Attempt,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}
