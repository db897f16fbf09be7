package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/tn3w/statussentinel/internal/domain"
)

// Some health endpoints sit behind CDNs that reject unknown clients, so the
// probe presents a browser user agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.3"

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

// Check issues one GET. Status in [200,399] counts as up; latency is
// measured to the final header byte, the body is not read.
func (h *HTTPChecker) Check(ctx context.Context, target string) Result {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Reason: domain.ReasonProbeError, Detail: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := h.Client.Do(req)
	latency := sinceMS(start)
	if err != nil {
		reason, detail := classify(err)
		return Result{Reason: reason, Detail: detail, LatencyMS: latency}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Result{Up: true, HTTPStatus: resp.StatusCode, LatencyMS: latency}
	}
	return Result{
		Reason:     domain.ReasonHTTPStatus,
		Detail:     resp.Status,
		HTTPStatus: resp.StatusCode,
		LatencyMS:  latency,
	}
}
