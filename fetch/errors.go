package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus indicates a response status outside the 2xx/3xx range.
type ErrHTTPStatus struct {
	StatusCode int
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// ErrDisallowed indicates robots.txt denies access to the URL.
type ErrDisallowed struct {
	URL string
}

func (e ErrDisallowed) Error() string {
	return fmt.Sprintf("disallowed by robots.txt: %s", e.URL)
}

// ErrMalformedURL indicates the target URL could not be parsed.
type ErrMalformedURL struct {
	URL string
	Err error
}

func (e ErrMalformedURL) Error() string {
	return fmt.Errorf("malformed url %s: %w", e.URL, e.Err).Error()
}

func (e ErrMalformedURL) Unwrap() error {
	return e.Err
}

// classify wraps a transport error or non-success status into the taxonomy.
func classify(err error, statusCode int) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout{Err: err}
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrTimeout{Err: err}
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return ErrConnection{Err: err}
		}
		return err
	}
	if statusCode != 0 {
		return ErrHTTPStatus{StatusCode: statusCode}
	}
	return nil
}

// Retryable reports whether an error is worth another attempt: timeouts,
// connection failures, and 429/502/503/504 responses. Everything else is
// permanent.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return true
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return true
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		switch status.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// ErrorTypeLabel maps an error to a stable label for metrics and stats.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var disallowed ErrDisallowed
	if errors.As(err, &disallowed) {
		return "disallowed"
	}
	var malformed ErrMalformedURL
	if errors.As(err, &malformed) {
		return "malformed_url"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		switch status.StatusCode {
		case http.StatusForbidden:
			return "forbidden"
		case http.StatusNotFound:
			return "not_found"
		case http.StatusTooManyRequests:
			return "rate_limited"
		default:
			return fmt.Sprintf("http_%d", status.StatusCode)
		}
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "other"
}
