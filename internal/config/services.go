package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/tn3w/statussentinel/internal/domain"
	"github.com/tn3w/statussentinel/internal/schedule"
)

const defaultMinecraftPort = "25565"

// serviceSpec is one value in the services file: either a bare target string
// ("Blog": "https://example.com/ping") or an object with overrides
// ("Game": {"target": "mc://mc.example.com", "schedule": "30s"}).
type serviceSpec struct {
	Target   string `json:"target"`
	Schedule string `json:"schedule,omitempty"`
}

func (s *serviceSpec) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &s.Target)
	}
	type raw serviceSpec
	return json.Unmarshal(b, (*raw)(s))
}

// LoadServices reads the services file and validates every entry. All
// validation failures are reported in one aggregated error so a bad file is
// fixed in a single round, and any failure rejects the whole file: a service
// list that is partially wrong cannot be trusted.
func LoadServices(path string, defaults Config) ([]domain.Service, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read services file: %w", err)
	}

	var specs map[string]serviceSpec
	if err := json.Unmarshal(b, &specs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%s: no services configured", path)
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs error
	out := make([]domain.Service, 0, len(specs))
	for _, name := range names {
		svc, err := buildService(name, specs[name], defaults)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, svc)
	}
	if errs != nil {
		return nil, fmt.Errorf("%s: %w", path, errs)
	}
	return out, nil
}

func buildService(name string, spec serviceSpec, defaults Config) (domain.Service, error) {
	var zero domain.Service

	if strings.TrimSpace(name) == "" {
		return zero, fmt.Errorf("service with empty name")
	}
	target := strings.TrimSpace(spec.Target)
	if target == "" {
		return zero, fmt.Errorf("service %q: empty target", name)
	}

	var kind domain.ServiceKind
	switch {
	case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
		kind = domain.KindHTTP
		if u, err := url.Parse(target); err != nil || u.Host == "" {
			return zero, fmt.Errorf("service %q: invalid URL %q", name, target)
		}

	case strings.HasPrefix(target, "mc://"):
		kind = domain.KindMinecraft
		hostport, err := parseMinecraftTarget(strings.TrimPrefix(target, "mc://"))
		if err != nil {
			return zero, fmt.Errorf("service %q: %w", name, err)
		}
		target = hostport

	default:
		return zero, fmt.Errorf("service %q: target %q: expected http(s):// or mc://", name, target)
	}

	sched := schedule.Schedule(schedule.Every(defaults.Interval))
	if spec.Schedule != "" {
		s, err := schedule.Parse(spec.Schedule)
		if err != nil {
			return zero, fmt.Errorf("service %q: %w", name, err)
		}
		sched = s
	}

	return domain.Service{Name: name, Target: target, Kind: kind, Schedule: sched}, nil
}

// parseMinecraftTarget normalizes "host", "host:port", or "[v6]:port" to a
// dialable host:port, defaulting to the standard Minecraft port.
func parseMinecraftTarget(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("empty minecraft address")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = strings.Trim(addr, "[]"), defaultMinecraftPort
	}
	if host == "" {
		return "", fmt.Errorf("minecraft address %q: missing host", addr)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("minecraft address %q: invalid port %q", addr, port)
	}
	return net.JoinHostPort(host, port), nil
}
