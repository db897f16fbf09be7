package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tn3w/statussentinel/internal/domain"
)

// MinecraftChecker speaks the Server List Ping handshake over raw TCP to
// decide whether a game server is up. A full, valid status JSON counts as
// up; every other outcome is down with a reason naming the failed stage.
type MinecraftChecker struct {
	Timeout time.Duration
	Dialer  *net.Dialer
}

func NewMinecraftChecker(timeout time.Duration) *MinecraftChecker {
	return &MinecraftChecker{
		Timeout: timeout,
		Dialer:  &net.Dialer{Timeout: timeout},
	}
}

// statusPayload is the part of the status JSON worth surfacing. Unknown
// fields (MOTD, favicon, mod lists) are ignored.
type statusPayload struct {
	Version struct {
		Name string `json:"name"`
	} `json:"version"`
	Players struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	} `json:"players"`
}

func (m *MinecraftChecker) Check(ctx context.Context, target string) Result {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return Result{Reason: domain.ReasonProbeError, Detail: err.Error()}
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Result{Reason: domain.ReasonProbeError, Detail: "invalid port: " + portStr}
	}

	start := time.Now()
	conn, err := m.Dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		reason, detail := classify(err)
		return Result{Reason: reason, Detail: detail, LatencyMS: sinceMS(start)}
	}
	defer conn.Close()

	// The ctx deadline is the scheduler's hard timeout; it also bounds
	// every read and write on the connection.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if m.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(m.Timeout))
	}

	if _, err := conn.Write(handshakePacket(host, uint16(port))); err != nil {
		return m.down(err, domain.ReasonHandshakeFailed, start)
	}
	if _, err := conn.Write(statusRequestPacket()); err != nil {
		return m.down(err, domain.ReasonHandshakeFailed, start)
	}

	payload, err := readStatusResponse(conn)
	if err != nil {
		return m.down(err, domain.ReasonMalformedResponse, start)
	}
	latency := sinceMS(start)

	if !json.Valid(payload) {
		return Result{
			Reason:    domain.ReasonMalformedResponse,
			Detail:    "status payload is not valid JSON",
			LatencyMS: latency,
		}
	}

	var st statusPayload
	detail := ""
	if err := json.Unmarshal(payload, &st); err == nil && (st.Version.Name != "" || st.Players.Max > 0) {
		detail = fmt.Sprintf("%s, %d/%d players", st.Version.Name, st.Players.Online, st.Players.Max)
	}
	return Result{Up: true, Detail: detail, LatencyMS: latency}
}

// down attributes a wire error to the given stage, except timeouts, which
// keep their own class.
func (m *MinecraftChecker) down(err error, stage domain.Reason, start time.Time) Result {
	if reason, detail := classify(err); reason == domain.ReasonTimeout {
		return Result{Reason: reason, Detail: detail, LatencyMS: sinceMS(start)}
	}
	return Result{Reason: stage, Detail: err.Error(), LatencyMS: sinceMS(start)}
}
