// Package robots fetches, caches, and evaluates robots.txt policies per host.
package robots

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/temoto/robotstxt"
)

const (
	// maxHosts bounds the per-host rules cache.
	maxHosts = 1024
	// maxBodySize caps how much of a robots.txt response is read.
	maxBodySize = 512 * 1024
)

// Policy decides whether a URL may be fetched and surfaces the host's
// crawl-delay. A fetch failure or non-200 response is treated as allow-all
// with no crawl-delay: an unreachable robots.txt is not evidence of
// prohibition.
type Policy struct {
	enabled bool
	agent   string
	client  *http.Client
	cache   *expirable.LRU[string, *hostRules]

	mu       sync.Mutex
	inflight map[string]*sync.Once
}

// hostRules is the cached decision material for one host. A nil group means
// the host fell back to allow-all.
type hostRules struct {
	group *robotstxt.Group
}

// New builds a policy for the given user-agent token. Entries expire after
// ttl. When enabled is false, IsAllowed always permits with no crawl-delay.
func New(agent string, timeout, ttl time.Duration, enabled bool) *Policy {
	return &Policy{
		enabled:  enabled,
		agent:    agent,
		client:   &http.Client{Timeout: timeout},
		cache:    expirable.NewLRU[string, *hostRules](maxHosts, nil, ttl),
		inflight: make(map[string]*sync.Once),
	}
}

// WithTransport swaps the HTTP transport used for robots.txt fetches.
func (p *Policy) WithTransport(rt http.RoundTripper) *Policy {
	p.client.Transport = rt
	return p
}

// IsAllowed reports whether pageURL may be fetched under this host's
// robots.txt, along with the host's crawl-delay (zero when absent).
func (p *Policy) IsAllowed(ctx context.Context, pageURL *url.URL) (bool, time.Duration) {
	if !p.enabled {
		return true, 0
	}

	rules := p.rulesFor(ctx, pageURL)
	if rules.group == nil {
		return true, 0
	}

	path := pageURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if pageURL.RawQuery != "" {
		path += "?" + pageURL.RawQuery
	}
	return rules.group.Test(path), rules.group.CrawlDelay
}

// CrawlDelay returns the cached crawl-delay for a host, zero when the host
// has not been queried yet or declares none.
func (p *Policy) CrawlDelay(host string) time.Duration {
	rules, ok := p.cache.Get(host)
	if !ok || rules.group == nil {
		return 0
	}
	return rules.group.CrawlDelay
}

func (p *Policy) rulesFor(ctx context.Context, pageURL *url.URL) *hostRules {
	host := pageURL.Host
	if rules, ok := p.cache.Get(host); ok {
		return rules
	}

	// Collapse concurrent first queries for the same host into one fetch.
	p.mu.Lock()
	once, ok := p.inflight[host]
	if !ok {
		once = &sync.Once{}
		p.inflight[host] = once
	}
	p.mu.Unlock()

	once.Do(func() {
		p.cache.Add(host, p.fetch(ctx, pageURL.Scheme, host))
		p.mu.Lock()
		delete(p.inflight, host)
		p.mu.Unlock()
	})

	if rules, ok := p.cache.Get(host); ok {
		return rules
	}
	// Raced with eviction; fail open rather than refetching inline.
	return &hostRules{}
}

func (p *Policy) fetch(ctx context.Context, scheme, host string) *hostRules {
	robotsURL := scheme + "://" + host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &hostRules{}
	}
	req.Header.Set("User-Agent", p.agent)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("robots.txt unreachable, allowing all",
			slog.String("host", host),
			slog.Any("error", err),
		)
		return &hostRules{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("robots.txt non-200, allowing all",
			slog.String("host", host),
			slog.Int("status", resp.StatusCode),
		)
		return &hostRules{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &hostRules{}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		slog.Debug("robots.txt unparseable, allowing all",
			slog.String("host", host),
			slog.Any("error", err),
		)
		return &hostRules{}
	}

	return &hostRules{group: data.FindGroup(p.agent)}
}
