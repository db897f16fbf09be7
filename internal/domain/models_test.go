package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIncident_Open(t *testing.T) {
	inc := Incident{ID: 1, Service: "Blog", StartedAt: time.Now(), Reason: ReasonTimeout}
	if !inc.Open() {
		t.Fatal("incident without ended_at should be open")
	}
	end := inc.StartedAt.Add(time.Minute)
	inc.EndedAt = &end
	if inc.Open() {
		t.Fatal("incident with ended_at should be closed")
	}
}

func TestIncident_OpenSerializesNullEndedAt(t *testing.T) {
	b, err := json.Marshal(Incident{ID: 1, Service: "Blog", StartedAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"ended_at":null`) {
		t.Fatalf("open incident should serialize ended_at as null: %s", b)
	}
}

func TestProbeResult_UpOmitsReason(t *testing.T) {
	b, err := json.Marshal(ProbeResult{Service: "Blog", Up: true, LatencyMS: 3.2, CheckedAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "reason") {
		t.Fatalf("up result should omit reason: %s", b)
	}
}
