// Package store keeps a ledger of page status transitions so the progress
// of a session can be inspected after the fact.
//
// Two ledgers are provided:
//
// - Memory: an in-process ledger, the default
// - GormLedger: a PostgreSQL table through gorm
package store

import (
	"context"
	"sync"
	"time"
)

// Stages a page goes through.
const (
	StageExtract = "extract"
	StageRestore = "restore"
)

// Event is one status transition of one page.
type Event struct {
	Session    string    `json:"session"`
	Page       int       `json:"page"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	Diagnostic string    `json:"diagnostic,omitempty"`
	At         time.Time `json:"at"`
}

// Ledger records transitions and returns them per session.
type Ledger interface {
	Record(ctx context.Context, e Event) error
	History(ctx context.Context, session string) ([]Event, error)
}

// Memory is a Ledger held in memory.
type Memory struct {
	mu     sync.Mutex
	events map[string][]Event
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{events: map[string][]Event{}}
}

// Record appends e to its session's history.
func (m *Memory) Record(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.Session] = append(m.events[e.Session], e)
	return nil
}

// History returns a copy of the session's events in recording order.
func (m *Memory) History(_ context.Context, session string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events[session]))
	copy(out, m.events[session])
	return out, nil
}
