package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/oraclemonitor/internal/domain"
	"github.com/hamed0406/oraclemonitor/internal/repo"
)

const DefaultCapacity = 100

var (
	_ repo.StatusWriter = (*Store)(nil)
	_ repo.StatusReader = (*Store)(nil)
)

// Store keeps the latest snapshot and a bounded alert history in memory.
type Store struct {
	mu       sync.RWMutex
	snap     domain.Snapshot
	alerts   []domain.AlertEvent
	capacity int
}

func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{
		alerts:   make([]domain.AlertEvent, 0, capacity),
		capacity: capacity,
	}
}

func (m *Store) Publish(ctx context.Context, s domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s
	return nil
}

func (m *Store) RecordAlert(ctx context.Context, e domain.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.alerts) == m.capacity {
		copy(m.alerts, m.alerts[1:])
		m.alerts = m.alerts[:len(m.alerts)-1]
	}
	m.alerts = append(m.alerts, e)
	return nil
}

func (m *Store) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap, nil
}

func (m *Store) Alerts(ctx context.Context, limit int) ([]domain.AlertEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.alerts) {
		limit = len(m.alerts)
	}
	out := make([]domain.AlertEvent, 0, limit)
	for i := len(m.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out, nil
}
