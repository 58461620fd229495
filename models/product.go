// Package models defines data structures shared across the scraping engine.
package models

import "time"

// Specification is one key/value row from a product specification table.
// Kept as a slice element rather than a map entry so table order survives.
type Specification struct {
	Key   string `csv:"key" json:"key"`
	Value string `csv:"value" json:"value"`
}

// ProductRecord represents one successfully extracted product page.
// Name and SourceURL are always present; a page missing its name is an
// ExtractionError, never a ProductRecord.
type ProductRecord struct {
	SKU            string          `csv:"sku" json:"sku,omitempty"`
	Name           string          `csv:"name" json:"name"`
	Price          string          `csv:"price" json:"price,omitempty"`
	Description    string          `csv:"description" json:"description,omitempty"`
	Specifications []Specification `csv:"-" json:"specifications,omitempty"`
	Images         []string        `csv:"-" json:"images,omitempty"`
	Categories     []string        `csv:"-" json:"categories,omitempty"`
	Availability   string          `csv:"availability" json:"availability,omitempty"`
	Brand          string          `csv:"brand" json:"brand,omitempty"`
	SourceURL      string          `csv:"source_url" json:"source_url"`
	ScrapedAt      time.Time       `csv:"scraped_at" json:"scraped_at"`
}

// ExtractionError records a page that was fetched (or attempted) but did not
// yield a valid ProductRecord. Non-fatal to the session.
type ExtractionError struct {
	SourceURL  string    `json:"source_url"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ExtractionError) Error() string {
	return e.SourceURL + ": " + e.Reason
}

// RequestOutcome is one append-only log entry describing a single HTTP
// attempt, successful or not.
type RequestOutcome struct {
	URL          string        `json:"url"`
	Attempt      int           `json:"attempt"`
	StatusCode   int           `json:"status_code,omitempty"`
	Succeeded    bool          `json:"succeeded"`
	Latency      time.Duration `json:"latency"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// SessionStats is the frozen summary of one scraping run.
type SessionStats struct {
	SessionID          string     `json:"session_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	RequestsMade       int        `json:"requests_made"`
	SuccessfulRequests int        `json:"successful_requests"`
	FailedRequests     int        `json:"failed_requests"`
	ProductsScraped    int        `json:"products_scraped"`
	Errors             []string   `json:"errors,omitempty"`
}

// SuccessRate reports successful requests as a fraction of requests made,
// or 0 when no requests were issued.
func (s *SessionStats) SuccessRate() float64 {
	if s.RequestsMade == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.RequestsMade)
}

// ScrapeResult bundles what a finished run hands back to the caller.
type ScrapeResult struct {
	Products []*ProductRecord
	Stats    *SessionStats
}
