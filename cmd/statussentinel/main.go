package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tn3w/statussentinel/internal/config"
	"github.com/tn3w/statussentinel/internal/httpapi"
	"github.com/tn3w/statussentinel/internal/incident"
	"github.com/tn3w/statussentinel/internal/logging"
	"github.com/tn3w/statussentinel/internal/repo"
	"github.com/tn3w/statussentinel/internal/repo/memory"
	"github.com/tn3w/statussentinel/internal/repo/postgres"
	"github.com/tn3w/statussentinel/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "statussentinel:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	// An unusable service list fails the whole process: partial monitoring
	// is worse than a loud restart loop.
	services, err := config.LoadServices(cfg.ServicesFile, cfg)
	if err != nil {
		logger.Error("config_invalid", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store repo.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("store_unreachable", zap.Error(err))
			return fmt.Errorf("store: %w", err)
		}
		defer pg.Close()
		if err := pg.Init(ctx); err != nil {
			return fmt.Errorf("store schema: %w", err)
		}
		store = pg
	} else {
		logger.Warn("no_database_url_using_memory_store")
		store = memory.New()
	}

	for _, svc := range services {
		if err := store.UpsertService(ctx, svc); err != nil {
			return fmt.Errorf("register service %s: %w", svc.Name, err)
		}
	}

	tracker := incident.NewTracker(logger, store, store)
	if err := tracker.Bootstrap(ctx, services); err != nil {
		return fmt.Errorf("recover incident state: %w", err)
	}

	if cfg.APIAddr != "" {
		api := httpapi.NewServer(logger, store)
		srv := &http.Server{Addr: cfg.APIAddr, Handler: api.Router()}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.APIAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("api_serve_failed", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	logger.Info("monitoring_started",
		zap.Int("services", len(services)),
		zap.Duration("default_interval", cfg.Interval),
		zap.Duration("probe_timeout", cfg.Timeout),
	)
	sched := scheduler.New(logger, tracker, cfg.Timeout, cfg.Concurrency)
	sched.Run(ctx, services)

	logger.Info("monitoring_stopped")
	return nil
}
