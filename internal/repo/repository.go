package repo

import (
	"context"
	"time"

	"github.com/tn3w/statussentinel/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later. Every write must be
// durable before it returns; the monitor treats acknowledged calls as facts.

type ServiceStore interface {
	UpsertService(ctx context.Context, svc domain.Service) error
}

type ResultStore interface {
	RecordProbe(ctx context.Context, r domain.ProbeResult) error
}

type IncidentStore interface {
	OpenIncident(ctx context.Context, service string, startedAt time.Time, reason domain.Reason) (int64, error)
	CloseIncident(ctx context.Context, id int64, endedAt time.Time) error
	// GetOpenIncident returns nil, nil when the service has no open incident.
	GetOpenIncident(ctx context.Context, service string) (*domain.Incident, error)
}

// StatusRow is the latest recorded result for one service, joined with its
// target for the status API.
type StatusRow struct {
	Service   string    `json:"service"`
	Target    string    `json:"target"`
	Up        bool      `json:"up"`
	Reason    string    `json:"reason,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

type StatusStore interface {
	LatestStatus(ctx context.Context) ([]StatusRow, error)
	ListIncidents(ctx context.Context, includeClosed bool) ([]domain.Incident, error)
}

// Store is the full surface the daemon wires together.
type Store interface {
	ServiceStore
	ResultStore
	IncidentStore
	StatusStore
}
