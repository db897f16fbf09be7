// Package memory is the in-memory store adapter, used by tests and when no
// DATABASE_URL is configured. Same semantics as the Postgres adapter,
// including the one-open-incident-per-service rule, minus durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tn3w/statussentinel/internal/domain"
	"github.com/tn3w/statussentinel/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	mu        sync.RWMutex
	services  map[string]domain.Service
	latest    map[string]domain.ProbeResult
	results   []domain.ProbeResult
	incidents []*domain.Incident
	nextID    int64
}

func New() *Store {
	return &Store{
		services: make(map[string]domain.Service),
		latest:   make(map[string]domain.ProbeResult),
		nextID:   1,
	}
}

func (m *Store) UpsertService(ctx context.Context, svc domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[svc.Name] = svc
	return nil
}

func (m *Store) RecordProbe(ctx context.Context, r domain.ProbeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	if cur, ok := m.latest[r.Service]; !ok || r.CheckedAt.After(cur.CheckedAt) {
		m.latest[r.Service] = r
	}
	return nil
}

func (m *Store) OpenIncident(ctx context.Context, service string, startedAt time.Time, reason domain.Reason) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range m.incidents {
		if inc.Service == service && inc.Open() {
			return 0, fmt.Errorf("incident already open for %s", service)
		}
	}
	inc := &domain.Incident{
		ID:        m.nextID,
		Service:   service,
		StartedAt: startedAt,
		Reason:    reason,
	}
	m.nextID++
	m.incidents = append(m.incidents, inc)
	return inc.ID, nil
}

func (m *Store) CloseIncident(ctx context.Context, id int64, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range m.incidents {
		if inc.ID == id && inc.Open() {
			t := endedAt
			inc.EndedAt = &t
			return nil
		}
	}
	// Matching Postgres: closing a missing or already-closed incident
	// updates zero rows and is not an error.
	return nil
}

func (m *Store) GetOpenIncident(ctx context.Context, service string) (*domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inc := range m.incidents {
		if inc.Service == service && inc.Open() {
			cp := *inc
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) LatestStatus(ctx context.Context) ([]repo.StatusRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]repo.StatusRow, 0, len(m.latest))
	for name, r := range m.latest {
		target := ""
		if svc, ok := m.services[name]; ok {
			target = svc.Target
		}
		out = append(out, repo.StatusRow{
			Service:   name,
			Target:    target,
			Up:        r.Up,
			Reason:    string(r.Reason),
			LatencyMS: r.LatencyMS,
			CheckedAt: r.CheckedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out, nil
}

func (m *Store) ListIncidents(ctx context.Context, includeClosed bool) ([]domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Incident, 0, len(m.incidents))
	for _, inc := range m.incidents {
		if !includeClosed && !inc.Open() {
			continue
		}
		out = append(out, *inc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// Results returns a copy of every recorded probe, oldest first. Test hook.
func (m *Store) Results() []domain.ProbeResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ProbeResult, len(m.results))
	copy(out, m.results)
	return out
}
