package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule decides when the next probe of a service runs.
type Schedule interface {
	// Next returns the first probe time strictly after t.
	Next(t time.Time) time.Time
	String() string
}

// Interval probes at a fixed spacing.
type Interval time.Duration

func Every(d time.Duration) Interval { return Interval(d) }

func (s Interval) Next(t time.Time) time.Time { return t.Add(time.Duration(s)) }

func (s Interval) String() string { return time.Duration(s).String() }

// Cron probes on a standard five-field cron expression.
type Cron struct {
	spec  string
	sched cron.Schedule
}

func (s Cron) Next(t time.Time) time.Time { return s.sched.Next(t) }

func (s Cron) String() string { return s.spec }

// Parse accepts either a Go duration ("90s", "5m") or a cron expression
// ("*/5 * * * *", "@hourly").
func Parse(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d < time.Second {
			return nil, fmt.Errorf("schedule %q: interval below 1s", spec)
		}
		return Interval(d), nil
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: not a duration or cron expression", spec)
	}
	return Cron{spec: spec, sched: sched}, nil
}
