// Package fetch composes rate limiting, robots.txt policy, user-agent
// rotation, and bounded retry into a single polite fetch primitive.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/ratelimit"
	"github.com/aluiziolira/go-scrape-products/robots"
	"github.com/aluiziolira/go-scrape-products/useragent"
)

// maxBodySize caps how much of a page body is read into memory.
const maxBodySize = 10 * 1024 * 1024

// OutcomeFunc receives one RequestOutcome per HTTP attempt. The fetcher does
// not own session state; the callback hands outcomes to whoever does.
type OutcomeFunc func(models.RequestOutcome)

// Fetcher is the polite "fetch one URL" primitive.
type Fetcher struct {
	cfg       *config.Config
	limiter   *ratelimit.Limiter
	policy    *robots.Policy
	agents    *useragent.Rotator
	retry     *Executor
	client    *http.Client
	onOutcome OutcomeFunc
}

// NewFetcher wires the politeness components together. onOutcome may be nil.
func NewFetcher(cfg *config.Config, limiter *ratelimit.Limiter, policy *robots.Policy, agents *useragent.Rotator, onOutcome OutcomeFunc) *Fetcher {
	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.ConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	return &Fetcher{
		cfg:       cfg,
		limiter:   limiter,
		policy:    policy,
		agents:    agents,
		retry:     NewExecutor(cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RetryBackoffFactor, cfg.RetryBackoffMax),
		client:    client,
		onOutcome: onOutcome,
	}
}

// WithTransport swaps the HTTP transport used for page fetches.
func (f *Fetcher) WithTransport(rt http.RoundTripper) *Fetcher {
	f.client.Transport = rt
	return f
}

// Fetch retrieves one URL under the politeness constraints. A robots.txt
// denial returns ErrDisallowed before any network call or rate-limiter
// consumption. Every HTTP attempt, successful or not, is reported through
// the outcome callback.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, int, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, ErrMalformedURL{URL: rawURL, Err: err}
	}
	if pageURL.Scheme != "http" && pageURL.Scheme != "https" {
		return nil, 0, ErrMalformedURL{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", pageURL.Scheme)}
	}
	if pageURL.Host == "" {
		return nil, 0, ErrMalformedURL{URL: rawURL, Err: fmt.Errorf("missing host")}
	}

	allowed, crawlDelay := f.policy.IsAllowed(ctx, pageURL)
	if !allowed {
		return nil, 0, ErrDisallowed{URL: rawURL}
	}

	if err := f.limiter.Wait(ctx, pageURL.Host, crawlDelay); err != nil {
		return nil, 0, err
	}

	var (
		body    []byte
		status  int
		attempt int
	)

	err = f.retry.Do(ctx, func() error {
		attempt++
		start := time.Now()

		attemptBody, attemptStatus, attemptErr := f.attempt(ctx, rawURL)
		f.report(models.RequestOutcome{
			URL:          rawURL,
			Attempt:      attempt,
			StatusCode:   attemptStatus,
			Succeeded:    attemptErr == nil,
			Latency:      time.Since(start),
			ErrorMessage: errorMessage(attemptErr),
			Timestamp:    time.Now(),
		})
		if attemptErr != nil {
			return attemptErr
		}

		body = attemptBody
		status = attemptStatus
		return nil
	})
	if err != nil {
		return nil, status, err
	}
	return body, status, nil
}

// attempt issues a single GET with browser-like headers.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, ErrMalformedURL{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.agents.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, classify(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// Drain so the connection can be reused before the next attempt.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, resp.StatusCode, classify(nil, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, classify(err, 0)
	}
	return body, resp.StatusCode, nil
}

func (f *Fetcher) report(outcome models.RequestOutcome) {
	if f.onOutcome != nil {
		f.onOutcome(outcome)
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
