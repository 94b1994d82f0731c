package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/satheeshds/driverdesk/auth"
)

// SessionGauge tracks how many sessions are held.
type SessionGauge interface {
	Set(float64)
}

// Manager hands out one machine per driver.
type Manager struct {
	deps  Deps
	gauge SessionGauge

	mu       sync.Mutex
	sessions map[string]*Machine
	bg       sync.WaitGroup
}

// NewManager creates a manager whose machines share deps. gauge may be nil.
func NewManager(deps Deps, gauge SessionGauge) *Manager {
	return &Manager{
		deps:     deps,
		gauge:    gauge,
		sessions: make(map[string]*Machine),
	}
}

// Session returns the driver's machine, creating it on first use and
// restoring any stored snapshot into it.
func (m *Manager) Session(ctx context.Context, id auth.Identity) (*Machine, error) {
	if id.UserID == "" {
		return nil, errors.New("driver identity has no user id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id.UserID]; ok {
		return s, nil
	}

	s := NewMachine(id, m.deps, &m.bg)
	s.release = m.release
	if _, err := s.Restore(ctx); err != nil {
		// A broken snapshot must not lock the driver out.
		slog.Error("snapshot restore failed", "userId", id.UserID, "error", err)
	}
	m.sessions[id.UserID] = s
	m.setGaugeLocked()
	return s, nil
}

// release drops a machine whose delivery has closed. Its state lives in the
// snapshot store, so the next Session rebuilds it.
func (m *Manager) release(s *Machine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.id.UserID] != s {
		return
	}
	delete(m.sessions, s.id.UserID)
	m.setGaugeLocked()
}

func (m *Manager) setGaugeLocked() {
	if m.gauge != nil {
		m.gauge.Set(float64(len(m.sessions)))
	}
}

// Find returns the driver's machine if one exists.
func (m *Manager) Find(userID string) (*Machine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Drain waits for background start-delivery calls to finish or ctx to end.
func (m *Manager) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
