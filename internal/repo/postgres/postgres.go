package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tn3w/statussentinel/internal/domain"
	"github.com/tn3w/statussentinel/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Init creates the schema if it does not exist yet. The partial unique index
// on incidents backs the one-open-incident-per-service invariant at the
// store, not just in the tracker's memory.
func (s *Store) Init(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS services (
    name   TEXT PRIMARY KEY,
    target TEXT NOT NULL,
    kind   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id           BIGSERIAL PRIMARY KEY,
    service_name TEXT NOT NULL REFERENCES services(name),
    up           BOOLEAN NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    detail       TEXT NOT NULL DEFAULT '',
    http_status  INT,
    latency_ms   DOUBLE PRECISION NOT NULL,
    checked_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS results_service_checked
    ON results (service_name, checked_at DESC);

CREATE TABLE IF NOT EXISTS incidents (
    id           BIGSERIAL PRIMARY KEY,
    service_name TEXT NOT NULL REFERENCES services(name),
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ,
    reason       TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS incidents_one_open
    ON incidents (service_name) WHERE ended_at IS NULL;
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ---- ServiceStore ----

func (s *Store) UpsertService(ctx context.Context, svc domain.Service) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO services (name, target, kind)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE
		 SET target = EXCLUDED.target, kind = EXCLUDED.kind`,
		svc.Name, svc.Target, string(svc.Kind),
	)
	if err != nil {
		return fmt.Errorf("upsert service: %w", err)
	}
	return nil
}

// ---- ResultStore ----

func (s *Store) RecordProbe(ctx context.Context, r domain.ProbeResult) error {
	var statusPtr *int
	if r.HTTPStatus != 0 {
		statusPtr = &r.HTTPStatus
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results
		   (service_name, up, reason, detail, http_status, latency_ms, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7)`,
		r.Service, r.Up, string(r.Reason), r.Detail, statusPtr, r.LatencyMS, r.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// ---- StatusStore ----

func (s *Store) LatestStatus(ctx context.Context) ([]repo.StatusRow, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (r.service_name)
       r.service_name,
       sv.target,
       r.up,
       r.reason,
       r.latency_ms,
       r.checked_at
  FROM results r
  JOIN services sv ON sv.name = r.service_name
 ORDER BY r.service_name, r.checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest status: %w", err)
	}
	defer rows.Close()

	var out []repo.StatusRow
	for rows.Next() {
		var row repo.StatusRow
		if err := rows.Scan(&row.Service, &row.Target, &row.Up, &row.Reason, &row.LatencyMS, &row.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
