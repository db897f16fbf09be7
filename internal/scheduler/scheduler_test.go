package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tn3w/statussentinel/internal/domain"
	"github.com/tn3w/statussentinel/internal/probe"
	"github.com/tn3w/statussentinel/internal/schedule"
)

// ---- fakes ----

type collectSink struct {
	mu      sync.Mutex
	results []domain.ProbeResult
}

func (c *collectSink) Handle(ctx context.Context, r domain.ProbeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collectSink) snapshot() []domain.ProbeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ProbeResult, len(c.results))
	copy(out, c.results)
	return out
}

type checkerFunc func(ctx context.Context, target string) probe.Result

func (f checkerFunc) Check(ctx context.Context, target string) probe.Result { return f(ctx, target) }

func svc(name string, every time.Duration) domain.Service {
	return domain.Service{
		Name:     name,
		Target:   "https://" + name,
		Kind:     domain.KindHTTP,
		Schedule: schedule.Every(every),
	}
}

func newTestScheduler(sink Sink, timeout time.Duration, chk checkerFunc) *Scheduler {
	s := New(zap.NewNop(), sink, timeout, 4)
	s.NewChecker = func(domain.Service) probe.Checker { return chk }
	return s
}

// ---- tests ----

func TestScheduler_EmitsResultPerTick(t *testing.T) {
	sink := &collectSink{}
	s := newTestScheduler(sink, time.Second, func(ctx context.Context, target string) probe.Result {
		return probe.Result{Up: true, LatencyMS: 1}
	})

	ctx, cancel := context.WithCancel(context.Background())
	doneRun := make(chan struct{})
	go func() { s.Run(ctx, []domain.Service{svc("a", 10*time.Millisecond)}); close(doneRun) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-doneRun

	got := sink.snapshot()
	if len(got) < 3 {
		t.Fatalf("want several results over 100ms at 10ms cadence, got %d", len(got))
	}
	for _, r := range got {
		if !r.Up || r.Service != "a" {
			t.Fatalf("unexpected result: %+v", r)
		}
	}
}

func TestScheduler_AtMostOneInFlightPerService(t *testing.T) {
	var inFlight, maxInFlight int64
	sink := &collectSink{}
	s := newTestScheduler(sink, time.Second, func(ctx context.Context, target string) probe.Result {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&maxInFlight)
			if n <= old || atomic.CompareAndSwapInt64(&maxInFlight, old, n) {
				break
			}
		}
		time.Sleep(25 * time.Millisecond) // much slower than the 5ms cadence
		atomic.AddInt64(&inFlight, -1)
		return probe.Result{Up: true}
	})

	ctx, cancel := context.WithCancel(context.Background())
	doneRun := make(chan struct{})
	go func() { s.Run(ctx, []domain.Service{svc("slow", 5*time.Millisecond)}); close(doneRun) }()

	time.Sleep(150 * time.Millisecond)
	cancel()
	<-doneRun

	if got := atomic.LoadInt64(&maxInFlight); got != 1 {
		t.Fatalf("want at most one in-flight probe for one service, saw %d", got)
	}
	if len(sink.snapshot()) < 2 {
		t.Fatal("slow probes should still produce a stream of results")
	}
}

func TestScheduler_ServicesProbeConcurrently(t *testing.T) {
	var inFlight, maxInFlight int64
	sink := &collectSink{}
	s := newTestScheduler(sink, time.Second, func(ctx context.Context, target string) probe.Result {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&maxInFlight)
			if n <= old || atomic.CompareAndSwapInt64(&maxInFlight, old, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return probe.Result{Up: true}
	})

	ctx, cancel := context.WithCancel(context.Background())
	doneRun := make(chan struct{})
	go func() {
		s.Run(ctx, []domain.Service{
			svc("a", 10*time.Millisecond),
			svc("b", 10*time.Millisecond),
			svc("c", 10*time.Millisecond),
		})
		close(doneRun)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-doneRun

	if got := atomic.LoadInt64(&maxInFlight); got < 2 {
		t.Fatalf("different services should probe concurrently, max in flight was %d", got)
	}
}

func TestScheduler_HardTimeoutYieldsDownResult(t *testing.T) {
	sink := &collectSink{}
	// The checker honors ctx, as real probes do, but would otherwise
	// block far past the timeout.
	s := newTestScheduler(sink, 30*time.Millisecond, func(ctx context.Context, target string) probe.Result {
		select {
		case <-ctx.Done():
			return probe.Result{Reason: domain.ReasonTimeout, Detail: ctx.Err().Error()}
		case <-time.After(5 * time.Second):
			return probe.Result{Up: true}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	doneRun := make(chan struct{})
	start := time.Now()
	go func() { s.Run(ctx, []domain.Service{svc("stuck", time.Hour)}); close(doneRun) }()

	deadline := time.After(2 * time.Second)
	for len(sink.snapshot()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no result arrived")
		case <-time.After(5 * time.Millisecond):
		}
	}
	elapsed := time.Since(start)

	r := sink.snapshot()[0]
	if r.Up || r.Reason != domain.ReasonTimeout {
		t.Fatalf("want down(timeout), got %+v", r)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("timeout result took %v, want ~30ms", elapsed)
	}
	cancel()
	<-doneRun
}

func TestScheduler_PanickingCheckerBecomesProbeError(t *testing.T) {
	sink := &collectSink{}
	s := newTestScheduler(sink, time.Second, func(ctx context.Context, target string) probe.Result {
		panic("malformed target slipped through")
	})

	ctx, cancel := context.WithCancel(context.Background())
	doneRun := make(chan struct{})
	go func() { s.Run(ctx, []domain.Service{svc("boom", 10*time.Millisecond)}); close(doneRun) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-doneRun

	got := sink.snapshot()
	if len(got) == 0 {
		t.Fatal("panics must still produce results")
	}
	for _, r := range got {
		if r.Up || r.Reason != domain.ReasonProbeError {
			t.Fatalf("want down(probe_error), got %+v", r)
		}
	}
}

func TestScheduler_ShutdownJoinsInFlightProbes(t *testing.T) {
	started := make(chan struct{}, 16)
	sink := &collectSink{}
	s := newTestScheduler(sink, 10*time.Second, func(ctx context.Context, target string) probe.Result {
		started <- struct{}{}
		<-ctx.Done() // blocks until shutdown cancels the probe ctx
		return probe.Result{Reason: domain.ReasonTimeout}
	})

	ctx, cancel := context.WithCancel(context.Background())
	doneRun := make(chan struct{})
	go func() { s.Run(ctx, []domain.Service{svc("a", time.Hour), svc("b", time.Hour)}); close(doneRun) }()

	<-started
	<-started
	cancel()

	select {
	case <-doneRun:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	// Results from probes cut off by shutdown are discarded.
	if n := len(sink.snapshot()); n != 0 {
		t.Fatalf("want no results after shutdown-cancelled probes, got %d", n)
	}
}
