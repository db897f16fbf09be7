package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tn3w/statussentinel/internal/domain"
	"github.com/tn3w/statussentinel/internal/probe"
)

// Sink consumes completed probe results. Handle runs on the probed
// service's own goroutine, so results for one service always arrive in
// probe order.
type Sink interface {
	Handle(ctx context.Context, r domain.ProbeResult)
}

type Scheduler struct {
	Logger      *zap.Logger
	Sink        Sink
	Timeout     time.Duration
	Concurrency int

	// NewChecker is the per-service checker factory; tests swap it out.
	NewChecker func(domain.Service) probe.Checker
}

func New(logger *zap.Logger, sink Sink, timeout time.Duration, concurrency int) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}
	s := &Scheduler{
		Logger:      logger,
		Sink:        sink,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
	s.NewChecker = func(svc domain.Service) probe.Checker {
		return probe.ForTarget(svc, s.Timeout)
	}
	return s
}

// Run probes every service on its own schedule until ctx is cancelled, then
// returns once every in-flight probe has stopped. The semaphore bounds how
// many probes run at once across services; within one service the loop
// itself guarantees at most one probe in flight, so a slow probe delays,
// never overlaps, its own next tick.
func (s *Scheduler) Run(ctx context.Context, services []domain.Service) {
	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	s.Logger.Info("scheduler_started",
		zap.Int("services", len(services)),
		zap.Duration("timeout", s.Timeout),
		zap.Int("concurrency", s.Concurrency),
	)

	for _, svc := range services {
		wg.Add(1)
		go func(svc domain.Service) {
			defer wg.Done()
			s.runService(ctx, svc, sem)
		}(svc)
	}

	wg.Wait()
	s.Logger.Info("scheduler_stopped")
}

func (s *Scheduler) runService(ctx context.Context, svc domain.Service, sem chan struct{}) {
	checker := s.NewChecker(svc)

	// First probe fires immediately; afterwards the schedule decides.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		res, ok := s.probeOnce(ctx, checker, svc)
		<-sem

		if !ok {
			return // shutdown while probing
		}
		s.Sink.Handle(ctx, res)
		timer.Reset(time.Until(svc.Schedule.Next(time.Now())))
	}
}

// probeOnce runs one check under the hard timeout. The checker executes on
// its own goroutine so a stuck probe cannot hold the result past the
// deadline: on expiry the probe is reported down(timeout) right away, and
// the checker — whose ctx is already dead — is joined before the next tick.
// Panics inside a checker degrade to down(probe_error).
func (s *Scheduler) probeOnce(ctx context.Context, checker probe.Checker, svc domain.Service) (domain.ProbeResult, bool) {
	cctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	checkedAt := time.Now().UTC()
	done := make(chan probe.Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				s.Logger.Error("probe_panicked",
					zap.String("service", svc.Name),
					zap.Any("panic", p),
				)
				done <- probe.Result{
					Reason: domain.ReasonProbeError,
					Detail: fmt.Sprint(p),
				}
			}
		}()
		done <- checker.Check(cctx, svc.Target)
	}()

	var r probe.Result
	select {
	case r = <-done:
	case <-cctx.Done():
		r = probe.Result{
			Reason:    domain.ReasonTimeout,
			Detail:    "probe exceeded " + s.Timeout.String(),
			LatencyMS: float64(s.Timeout.Milliseconds()),
		}
		cancel()
		<-done
	}

	if ctx.Err() != nil {
		return domain.ProbeResult{}, false
	}

	res := domain.ProbeResult{
		Service:    svc.Name,
		Up:         r.Up,
		Reason:     r.Reason,
		Detail:     r.Detail,
		HTTPStatus: r.HTTPStatus,
		LatencyMS:  r.LatencyMS,
		CheckedAt:  checkedAt,
	}
	s.Logger.Debug("probe_done",
		zap.String("service", svc.Name),
		zap.Bool("up", res.Up),
		zap.String("reason", string(res.Reason)),
		zap.Float64("latency_ms", res.LatencyMS),
	)
	return res, true
}
