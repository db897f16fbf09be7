package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tn3w/statussentinel/internal/domain"
)

func (s *Store) OpenIncident(ctx context.Context, service string, startedAt time.Time, reason domain.Reason) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO incidents (service_name, started_at, reason)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		service, startedAt, string(reason),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("open incident: %w", err)
	}
	s.log.Debug("incident_row_opened", zap.String("service", service), zap.Int64("id", id))
	return id, nil
}

func (s *Store) CloseIncident(ctx context.Context, id int64, endedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE incidents SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL`,
		id, endedAt,
	)
	if err != nil {
		return fmt.Errorf("close incident: %w", err)
	}
	return nil
}

func (s *Store) GetOpenIncident(ctx context.Context, service string) (*domain.Incident, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, service_name, started_at, ended_at, reason
		   FROM incidents
		  WHERE service_name = $1 AND ended_at IS NULL`,
		service,
	)
	var (
		inc    domain.Incident
		reason string
	)
	err := row.Scan(&inc.ID, &inc.Service, &inc.StartedAt, &inc.EndedAt, &reason)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open incident lookup: %w", err)
	}
	inc.Reason = domain.Reason(reason)
	return &inc, nil
}

func (s *Store) ListIncidents(ctx context.Context, includeClosed bool) ([]domain.Incident, error) {
	q := `SELECT id, service_name, started_at, ended_at, reason
	        FROM incidents`
	if !includeClosed {
		q += ` WHERE ended_at IS NULL`
	}
	q += ` ORDER BY started_at DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []domain.Incident
	for rows.Next() {
		var (
			inc    domain.Incident
			reason string
		)
		if err := rows.Scan(&inc.ID, &inc.Service, &inc.StartedAt, &inc.EndedAt, &reason); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		inc.Reason = domain.Reason(reason)
		out = append(out, inc)
	}
	return out, rows.Err()
}
