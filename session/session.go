// Package session tracks the lifecycle and accounting of one scraping run.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-products/models"
)

var (
	// ErrAlreadyStarted is returned when StartSession is called twice.
	ErrAlreadyStarted = errors.New("session: already started")
	// ErrNotActive is returned when recording before start or after end.
	ErrNotActive = errors.New("session: not active")
)

type state int

const (
	stateIdle state = iota
	stateActive
	stateEnded
)

// Tracker is a finite-state machine over Idle -> Active -> Ended. Recording
// out of state order is a programmer error surfaced as an error value, never
// a silent no-op. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	state    state
	stats    models.SessionStats
	outcomes []models.RequestOutcome
	frozen   *models.SessionStats
}

// NewTracker returns a tracker in the Idle state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// StartSession transitions Idle -> Active, assigning a session ID and start
// time. Calling it twice is an error.
func (t *Tracker) StartSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateIdle {
		return ErrAlreadyStarted
	}
	t.state = stateActive
	t.stats.SessionID = uuid.NewString()
	t.stats.StartTime = time.Now()
	return nil
}

// RecordRequest appends one HTTP attempt outcome and updates the tallies.
func (t *Tracker) RecordRequest(outcome models.RequestOutcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateActive {
		return ErrNotActive
	}
	t.outcomes = append(t.outcomes, outcome)
	t.stats.RequestsMade++
	if outcome.Succeeded {
		t.stats.SuccessfulRequests++
	} else {
		t.stats.FailedRequests++
	}
	return nil
}

// RecordProduct counts one successfully extracted product.
func (t *Tracker) RecordProduct(record *models.ProductRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateActive {
		return ErrNotActive
	}
	if record != nil {
		t.stats.ProductsScraped++
	}
	return nil
}

// RecordFailure logs an extraction or fetch failure for one URL. It does not
// touch the HTTP request tallies; those are owned by RecordRequest.
func (t *Tracker) RecordFailure(failure models.ExtractionError) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateActive {
		return ErrNotActive
	}
	t.stats.Errors = append(t.stats.Errors, failure.Error())
	return nil
}

// EndSession transitions Active -> Ended and freezes the stats. Calls after
// the first return the same frozen snapshot, tolerating defensive double
// cleanup by callers. Ending an Idle tracker is an error.
func (t *Tracker) EndSession() (*models.SessionStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateIdle:
		return nil, ErrNotActive
	case stateEnded:
		return t.frozen, nil
	}

	t.state = stateEnded
	now := time.Now()
	t.stats.EndTime = &now

	snapshot := t.stats
	snapshot.Errors = make([]string, len(t.stats.Errors))
	copy(snapshot.Errors, t.stats.Errors)
	t.frozen = &snapshot
	return t.frozen, nil
}

// SessionID returns the assigned session ID, empty before StartSession.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.SessionID
}

// Outcomes returns a copy of the append-only request log.
func (t *Tracker) Outcomes() []models.RequestOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.RequestOutcome, len(t.outcomes))
	copy(out, t.outcomes)
	return out
}
