// Package engine orchestrates fetching and extraction across a list of
// target URLs, accounting every outcome in a session tracker.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/extract"
	"github.com/aluiziolira/go-scrape-products/fetch"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/ratelimit"
	"github.com/aluiziolira/go-scrape-products/robots"
	"github.com/aluiziolira/go-scrape-products/session"
	"github.com/aluiziolira/go-scrape-products/useragent"
)

// Engine drives Fetch -> Parse per URL and owns one session tracker. One
// engine instance serves one run; build a fresh engine for the next.
type Engine struct {
	cfg       *config.Config
	fetcher   *fetch.Fetcher
	policy    *robots.Policy
	extractor extract.Extractor
	tracker   *session.Tracker
	Metrics   *Metrics
}

// New wires an engine from validated configuration. The extractor is the
// pluggable site strategy; nil falls back to the reference extractor.
func New(cfg *config.Config, extractor extract.Extractor) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if extractor == nil {
		extractor = extract.NewProductExtractor(extract.Selectors{})
	}

	e := &Engine{
		cfg:       cfg,
		extractor: extractor,
		tracker:   session.NewTracker(),
		Metrics:   NewMetrics(),
	}

	limiter := ratelimit.New(cfg.RateLimitInterval, cfg.MaxRequestsPerHour)
	e.policy = robots.New(cfg.RobotsAgent, cfg.RobotsTimeout, cfg.RobotsCacheTTL, cfg.RespectRobotsTxt)
	agents := useragent.NewRotator(cfg.UserAgents, cfg.RotateUserAgents)
	e.fetcher = fetch.NewFetcher(cfg, limiter, e.policy, agents, e.recordOutcome)

	return e, nil
}

// WithTransport swaps the HTTP transport for page and robots.txt fetches.
func (e *Engine) WithTransport(rt http.RoundTripper) *Engine {
	e.fetcher.WithTransport(rt)
	e.policy.WithTransport(rt)
	return e
}

// Tracker exposes the engine's session tracker, mainly for the session log
// export.
func (e *Engine) Tracker() *session.Tracker {
	return e.tracker
}

// Run scrapes urls in input order and returns the extracted products plus
// the frozen session stats. Per-URL failures are absorbed into the stats;
// only session misuse and configuration errors are fatal. Input ordering of
// successes is preserved in the returned slice.
func (e *Engine) Run(ctx context.Context, urls []string) (*models.ScrapeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.tracker.StartSession(); err != nil {
		return nil, err
	}

	slog.Info("starting scrape session",
		slog.String("session_id", e.tracker.SessionID()),
		slog.Int("urls", len(urls)),
	)

	results := make([]*models.ProductRecord, len(urls))
	if e.cfg.HostParallelism > 1 {
		e.runParallel(ctx, urls, results)
	} else {
		for i, target := range urls {
			if ctx.Err() != nil {
				break
			}
			results[i] = e.scrapeOne(ctx, target)
		}
	}

	stats, err := e.tracker.EndSession()
	if err != nil {
		return nil, err
	}

	products := make([]*models.ProductRecord, 0, len(urls))
	for _, record := range results {
		if record != nil {
			products = append(products, record)
		}
	}

	slog.Info("scrape session finished",
		slog.String("session_id", stats.SessionID),
		slog.Int("products", len(products)),
		slog.Int("requests", stats.RequestsMade),
		slog.Int("failures", len(stats.Errors)),
	)

	return &models.ScrapeResult{Products: products, Stats: stats}, nil
}

// runParallel fans out one worker per host. Politeness makes within-host
// concurrency counterproductive, so each worker walks its host's URLs
// sequentially; the rate limiter and robots cache are keyed per host and
// lock accordingly.
func (e *Engine) runParallel(ctx context.Context, urls []string, results []*models.ProductRecord) {
	type target struct {
		index int
		url   string
	}

	hostOrder := make([]string, 0)
	perHost := make(map[string][]target)
	for i, raw := range urls {
		host := ""
		if parsed, err := url.Parse(raw); err == nil {
			host = parsed.Host
		}
		if _, ok := perHost[host]; !ok {
			hostOrder = append(hostOrder, host)
		}
		perHost[host] = append(perHost[host], target{index: i, url: raw})
	}

	sem := make(chan struct{}, e.cfg.HostParallelism)
	done := make(chan struct{})
	pending := len(hostOrder)

	for _, host := range hostOrder {
		targets := perHost[host]
		go func() {
			defer func() { done <- struct{}{} }()
			sem <- struct{}{}
			defer func() { <-sem }()

			for _, tgt := range targets {
				if ctx.Err() != nil {
					return
				}
				results[tgt.index] = e.scrapeOne(ctx, tgt.url)
			}
		}()
	}
	for i := 0; i < pending; i++ {
		<-done
	}
}

// scrapeOne fetches and extracts a single URL, absorbing every failure into
// the tracker. One bad product never aborts the run.
func (e *Engine) scrapeOne(ctx context.Context, target string) *models.ProductRecord {
	body, status, err := e.fetcher.Fetch(ctx, target)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			e.recordCancellation(target)
			return nil
		}
		label := fetch.ErrorTypeLabel(err)
		e.Metrics.IncError(label)
		e.tracker.RecordFailure(models.ExtractionError{
			SourceURL:  target,
			Reason:     err.Error(),
			OccurredAt: time.Now(),
		})
		slog.Warn("fetch failed",
			slog.String("url", target),
			slog.String("category", label),
			slog.Any("error", err),
		)
		return nil
	}

	record, err := e.extractor.Parse(body, target)
	if err != nil {
		var extractionErr models.ExtractionError
		if !errors.As(err, &extractionErr) {
			extractionErr = models.ExtractionError{
				SourceURL:  target,
				Reason:     err.Error(),
				OccurredAt: time.Now(),
			}
		}
		e.Metrics.IncError("extraction")
		e.tracker.RecordFailure(extractionErr)
		slog.Warn("extraction failed",
			slog.String("url", target),
			slog.Int("status", status),
			slog.String("reason", extractionErr.Reason),
		)
		return nil
	}

	if err := e.tracker.RecordProduct(record); err != nil {
		slog.Error("record product", slog.Any("error", err))
		return nil
	}
	e.Metrics.IncProducts()
	return record
}

func (e *Engine) recordCancellation(target string) {
	e.Metrics.IncError("cancelled")
	e.tracker.RecordFailure(models.ExtractionError{
		SourceURL:  target,
		Reason:     "run cancelled",
		OccurredAt: time.Now(),
	})
}

// recordOutcome is the fetcher's per-attempt callback.
func (e *Engine) recordOutcome(outcome models.RequestOutcome) {
	if err := e.tracker.RecordRequest(outcome); err != nil {
		slog.Error("record request", slog.Any("error", err))
		return
	}
	phase := "failed"
	if outcome.Succeeded {
		phase = "succeeded"
	}
	e.Metrics.IncRequest(phase)
	e.Metrics.ObserveDuration(outcome.Latency)
	if outcome.Attempt > 1 {
		e.Metrics.IncRetries()
	}
}
