package memory

import (
	"context"
	"testing"
	"time"

	"github.com/tn3w/statussentinel/internal/domain"
)

func TestStore_IncidentLifecycle(t *testing.T) {
	ctx := context.Background()
	m := New()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	id, err := m.OpenIncident(ctx, "Blog", start, domain.ReasonHTTPStatus)
	if err != nil {
		t.Fatal(err)
	}

	inc, err := m.GetOpenIncident(ctx, "Blog")
	if err != nil || inc == nil {
		t.Fatalf("want open incident, got %v, %v", inc, err)
	}
	if inc.ID != id || !inc.Open() || inc.Reason != domain.ReasonHTTPStatus {
		t.Fatalf("open incident wrong: %+v", inc)
	}

	// The invariant holds at the store too.
	if _, err := m.OpenIncident(ctx, "Blog", start.Add(time.Minute), domain.ReasonTimeout); err == nil {
		t.Fatal("second open incident for the same service should fail")
	}
	// Other services are unaffected.
	if _, err := m.OpenIncident(ctx, "Game", start, domain.ReasonConnectionRefused); err != nil {
		t.Fatal(err)
	}

	end := start.Add(5 * time.Minute)
	if err := m.CloseIncident(ctx, id, end); err != nil {
		t.Fatal(err)
	}
	if inc, _ := m.GetOpenIncident(ctx, "Blog"); inc != nil {
		t.Fatalf("incident should be closed, got %+v", inc)
	}

	// Closing again is a no-op, like an UPDATE matching zero rows.
	if err := m.CloseIncident(ctx, id, end.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	open, err := m.ListIncidents(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].Service != "Game" {
		t.Fatalf("want only Game open, got %+v", open)
	}
	all, err := m.ListIncidents(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 incidents total, got %d", len(all))
	}
}

func TestStore_LatestStatus(t *testing.T) {
	ctx := context.Background()
	m := New()
	if err := m.UpsertService(ctx, domain.Service{Name: "Blog", Target: "https://example.com", Kind: domain.KindHTTP}); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, up := range []bool{true, false, true} {
		r := domain.ProbeResult{Service: "Blog", Up: up, LatencyMS: float64(10 * i), CheckedAt: base.Add(time.Duration(i) * time.Minute)}
		if !up {
			r.Reason = domain.ReasonTimeout
		}
		if err := m.RecordProbe(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := m.LatestStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("want one row, got %d", len(rows))
	}
	row := rows[0]
	if row.Target != "https://example.com" || !row.Up || !row.CheckedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("latest row wrong: %+v", row)
	}
	if got := m.Results(); len(got) != 3 {
		t.Fatalf("want 3 recorded probes, got %d", len(got))
	}
}
