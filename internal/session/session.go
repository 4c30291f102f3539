// Package session tracks conversation threads across suspensions. A thread is
// owned by at most one live run at a time; suspended threads persist through
// the checkpoint store until resumed or abandoned.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mpellerin/tally/internal/checkpoint"
	"github.com/mpellerin/tally/internal/interrupt"
)

// Status is the lifecycle state of a thread.
type Status string

const (
	// StatusActive marks a thread with a run in flight.
	StatusActive Status = "active"
	// StatusSuspended marks a thread halted on pending interrupts.
	StatusSuspended Status = "suspended"
	// StatusCompleted marks a thread that produced a final answer.
	StatusCompleted Status = "completed"
)

// ErrThreadBusy is returned when a thread already has a run in flight.
var ErrThreadBusy = fmt.Errorf("thread already has an active run")

// Summary describes one suspended thread.
type Summary struct {
	ThreadID  string              `json:"thread_id"`
	Pending   []interrupt.Suspend `json:"pending"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Manager enforces exclusive thread ownership and surfaces suspended threads
// from the checkpoint store.
type Manager struct {
	mu     sync.Mutex
	store  checkpoint.Store
	active map[string]time.Time
}

// NewManager creates a manager over the given checkpoint store.
func NewManager(store checkpoint.Store) *Manager {
	return &Manager{store: store, active: make(map[string]time.Time)}
}

// Acquire claims a thread for a run. A second concurrent run on the same
// thread fails with ErrThreadBusy.
func (m *Manager) Acquire(threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[threadID]; ok {
		return fmt.Errorf("thread %s: %w", threadID, ErrThreadBusy)
	}
	m.active[threadID] = time.Now()
	return nil
}

// Release returns a thread to the idle pool.
func (m *Manager) Release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, threadID)
}

// Status reports a thread's current lifecycle state. A thread with neither a
// live run nor a checkpoint has completed (or never existed).
func (m *Manager) Status(ctx context.Context, threadID string) (Status, error) {
	m.mu.Lock()
	_, running := m.active[threadID]
	m.mu.Unlock()
	if running {
		return StatusActive, nil
	}

	_, err := m.store.Load(ctx, threadID)
	if err == nil {
		return StatusSuspended, nil
	}
	if errors.Is(err, checkpoint.ErrNotFound) {
		return StatusCompleted, nil
	}
	return "", err
}

// Suspended lists every thread currently halted on interrupts, most recently
// updated first.
func (m *Manager) Suspended(ctx context.Context) ([]Summary, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		cp, err := m.store.Load(ctx, id)
		if err != nil {
			if errors.Is(err, checkpoint.ErrNotFound) {
				continue
			}
			return nil, err
		}
		summaries = append(summaries, Summary{
			ThreadID:  cp.ThreadID,
			Pending:   cp.Suspends(),
			UpdatedAt: cp.UpdatedAt,
		})
	}
	return summaries, nil
}
