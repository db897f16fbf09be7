package domain

import (
	"time"

	"github.com/tn3w/statussentinel/internal/schedule"
)

// ServiceKind selects the probe protocol for a target.
type ServiceKind string

const (
	KindHTTP      ServiceKind = "http"
	KindMinecraft ServiceKind = "minecraft"
)

// Service is one monitored target. Immutable after load.
type Service struct {
	Name     string            `json:"name"`
	Target   string            `json:"target"` // http(s) URL, or host:port for minecraft
	Kind     ServiceKind       `json:"kind"`
	Schedule schedule.Schedule `json:"-"`
}

// Reason classifies why a probe reported a service as down.
type Reason string

const (
	ReasonHTTPStatus        Reason = "http_status"
	ReasonTimeout           Reason = "timeout"
	ReasonConnectionRefused Reason = "connection_refused"
	ReasonDNS               Reason = "dns"
	ReasonTLS               Reason = "tls"
	ReasonHandshakeFailed   Reason = "handshake_failed"
	ReasonMalformedResponse Reason = "malformed_response"
	ReasonProbeError        Reason = "probe_error"
)

// ProbeResult is the outcome of one scheduled check. Append-only fact;
// persisted and fed to the incident tracker, never retained in memory.
type ProbeResult struct {
	Service    string    `json:"service"`
	Up         bool      `json:"up"`
	Reason     Reason    `json:"reason,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	LatencyMS  float64   `json:"latency_ms"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Incident is a contiguous interval during which a service was observed
// down. EndedAt is nil while the incident is still open; at most one open
// incident may exist per service.
type Incident struct {
	ID        int64      `json:"id"`
	Service   string     `json:"service"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Reason    Reason     `json:"reason"`
}

func (i Incident) Open() bool { return i.EndedAt == nil }
