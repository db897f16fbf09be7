package probe

import (
	"context"
	"time"

	"github.com/tn3w/statussentinel/internal/domain"
)

// Result is the outcome of a single probe round-trip.
//
// Reason is empty when Up is true. HTTPStatus is only set by the HTTP
// checker. LatencyMS covers connect through the last byte the probe needed.
type Result struct {
	Up         bool
	Reason     domain.Reason
	Detail     string
	HTTPStatus int
	LatencyMS  float64
}

// Checker performs a single check against one target. Implementations never
// retry: retry policy is the scheduler's next tick.
type Checker interface {
	Check(ctx context.Context, target string) Result
}

// ForTarget returns the checker matching the service's protocol.
func ForTarget(svc domain.Service, timeout time.Duration) Checker {
	if svc.Kind == domain.KindMinecraft {
		return NewMinecraftChecker(timeout)
	}
	return NewHTTPChecker(timeout)
}

func sinceMS(start time.Time) float64 {
	return time.Since(start).Seconds() * 1000
}
