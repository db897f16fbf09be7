// Package incident turns per-service streams of probe results into incident
// open/close transitions.
package incident

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tn3w/statussentinel/internal/domain"
	"github.com/tn3w/statussentinel/internal/repo"
)

// Tracker holds one state per service: healthy, or degraded with the open
// incident it is riding. Results for a service must arrive in order, which
// the scheduler guarantees by running at most one probe per service at a
// time; the states map itself is fixed after Bootstrap, so Handle needs no
// locking as long as each service's results come from a single goroutine.
type Tracker struct {
	log       *zap.Logger
	results   repo.ResultStore
	incidents repo.IncidentStore
	states    map[string]*state
}

type state struct {
	degraded    bool
	incidentID  int64
	startedAt   time.Time
	lastReason  domain.Reason
	occurrences int
}

func NewTracker(log *zap.Logger, results repo.ResultStore, incidents repo.IncidentStore) *Tracker {
	return &Tracker{
		log:       log,
		results:   results,
		incidents: incidents,
		states:    make(map[string]*state),
	}
}

// Bootstrap seeds per-service state, adopting any incident the store still
// has open from a previous run so a restart mid-outage does not open a
// duplicate.
func (t *Tracker) Bootstrap(ctx context.Context, services []domain.Service) error {
	for _, svc := range services {
		st := &state{}
		inc, err := t.incidents.GetOpenIncident(ctx, svc.Name)
		if err != nil {
			return fmt.Errorf("open incident lookup for %s: %w", svc.Name, err)
		}
		if inc != nil {
			st.degraded = true
			st.incidentID = inc.ID
			st.startedAt = inc.StartedAt
			st.lastReason = inc.Reason
			st.occurrences = 1
			t.log.Info("incident_adopted",
				zap.String("service", svc.Name),
				zap.Int64("incident_id", inc.ID),
				zap.Time("started_at", inc.StartedAt),
			)
		}
		t.states[svc.Name] = st
	}
	return nil
}

// Handle records the result and applies one state-machine step. Store
// failures are logged and absorbed: the in-memory state still advances, and
// the monitor keeps running.
func (t *Tracker) Handle(ctx context.Context, r domain.ProbeResult) {
	if err := t.results.RecordProbe(ctx, r); err != nil {
		t.log.Warn("record_probe_failed",
			zap.String("service", r.Service),
			zap.Error(err),
		)
	}

	st := t.states[r.Service]
	if st == nil {
		t.log.Warn("result_for_unknown_service", zap.String("service", r.Service))
		return
	}

	switch {
	case r.Up && !st.degraded:
		// healthy stays healthy

	case !r.Up && !st.degraded:
		id, err := t.incidents.OpenIncident(ctx, r.Service, r.CheckedAt, r.Reason)
		if err != nil {
			t.log.Error("open_incident_failed",
				zap.String("service", r.Service),
				zap.Error(err),
			)
		}
		st.degraded = true
		st.incidentID = id
		st.startedAt = r.CheckedAt
		st.lastReason = r.Reason
		st.occurrences = 1
		t.log.Warn("incident_opened",
			zap.String("service", r.Service),
			zap.Int64("incident_id", id),
			zap.String("reason", string(r.Reason)),
		)

	case !r.Up && st.degraded:
		st.lastReason = r.Reason
		st.occurrences++

	case r.Up && st.degraded:
		if err := t.incidents.CloseIncident(ctx, st.incidentID, r.CheckedAt); err != nil {
			t.log.Error("close_incident_failed",
				zap.String("service", r.Service),
				zap.Int64("incident_id", st.incidentID),
				zap.Error(err),
			)
		}
		t.log.Info("incident_closed",
			zap.String("service", r.Service),
			zap.Int64("incident_id", st.incidentID),
			zap.Duration("duration", r.CheckedAt.Sub(st.startedAt)),
			zap.Int("occurrences", st.occurrences),
		)
		*st = state{}
	}
}
