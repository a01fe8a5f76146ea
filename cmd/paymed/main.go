package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/payme/contracts/cmd/paymed/bootstrap"
	"github.com/payme/contracts/cmd/paymed/handlers"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/pkg/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
	buildUser    = "unknown"
)

func main() {
	// -------------------------------------------------------------------------
	// Config

	cfg := bootstrap.NewConfigFromEnv(logger.NewContext())

	// -------------------------------------------------------------------------
	// Logging

	ctx := bootstrap.NewContextWithLogger(cfg)

	// -------------------------------------------------------------------------
	// App Starting

	logger.Info(ctx, "Started : Application Initializing")
	defer logger.Info(ctx, "Completed")

	logger.Info(ctx, "Build %v (%v on %v)", buildVersion, buildUser, buildDate)

	// -------------------------------------------------------------------------
	// Start Database / Storage

	logger.Info(ctx, "Started : Initialize Database")

	masterDB := bootstrap.NewMasterDB(ctx, cfg)

	// -------------------------------------------------------------------------
	// Metrics

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := handlers.NewMetrics(registry)

	// -------------------------------------------------------------------------
	// Host

	h := bootstrap.NewHost(ctx, masterDB, metrics.Middleware, handlers.LogInvocations)

	// -------------------------------------------------------------------------
	// API

	app := handlers.API(ctx, handlers.Config{
		RateLimit:    cfg.Node.RateLimit,
		RateBurst:    cfg.Node.RateBurst,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, masterDB, h, registry)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info(ctx, "API listening on %s", cfg.Node.ListenAddress)
		serverErrors <- app.Listen(cfg.Node.ListenAddress)
	}()

	// -------------------------------------------------------------------------
	// Ledger

	sch := scheduler.New(scheduler.DefaultPollInterval)
	if cfg.Node.LedgerCloseInterval > 0 {
		sch.ScheduleJob(ctx, scheduler.NewPeriodicProcess("close ledger",
			&ledgerCloser{host: h, metrics: metrics}, cfg.Node.LedgerCloseInterval, time.Now()))
	} else {
		logger.Warn(ctx, "Ledger close interval %s, ledger will not advance",
			cfg.Node.LedgerCloseInterval)
	}

	go func() {
		if err := sch.Run(ctx); err != nil {
			logger.Error(ctx, "Scheduler failed : %s", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	var err error
	select {
	case err = <-serverErrors:
		logger.Error(ctx, "Server failed : %s", err)

	case <-osSignals:
		logger.Info(ctx, "Start shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Node.ShutdownTimeout)
	defer cancel()

	err = multierr.Combine(err, sch.Stop(shutdownCtx), app.ShutdownWithContext(shutdownCtx),
		masterDB.Close())
	if err != nil {
		logger.Fatal(ctx, "Shutdown : %s", err)
	}
}

// ledgerCloser advances the ledger sequence each time it runs.
type ledgerCloser struct {
	host    *host.Host
	metrics *handlers.Metrics
}

func (lc *ledgerCloser) Run(ctx context.Context) {
	seq, err := lc.host.Advance(ctx)
	if err != nil {
		logger.Error(ctx, "Advance ledger : %s", err)
		return
	}
	lc.metrics.SetSequence(seq)
	logger.Verbose(ctx, "Ledger closed, sequence %d", seq)
}
