package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/paynet/nexus-liquidity/internal/api"
	"github.com/paynet/nexus-liquidity/internal/audit"
	"github.com/paynet/nexus-liquidity/internal/config"
	"github.com/paynet/nexus-liquidity/internal/db"
	"github.com/paynet/nexus-liquidity/internal/health"
	"github.com/paynet/nexus-liquidity/internal/ledger"
	"github.com/paynet/nexus-liquidity/internal/logger"
	"github.com/paynet/nexus-liquidity/internal/metrics"
	"github.com/paynet/nexus-liquidity/internal/risk"
	"github.com/paynet/nexus-liquidity/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting liquidity check service",
		"port", cfg.HTTPPort,
		"workers", cfg.Workers,
		"config_path", cfg.ConfigPath,
	)

	hs := health.NewState()
	metrics.Init()

	// Seed balances from the network config. Unreadable config is a safe
	// degraded start: every debit rejects, credits still create banks.
	store := ledger.NewStore(cfg.TxLogCap)
	banks, err := config.LoadNetwork(cfg.ConfigPath)
	if err != nil {
		log.Warn("network config unreadable, starting with empty ledger", "err", err)
	} else {
		seed := make(map[string]decimal.Decimal)
		for _, b := range banks {
			if b.InitialBalance != nil {
				seed[strings.ToUpper(b.ID)] = *b.InitialBalance
			}
		}
		store.Seed(seed)
		log.Info("seeded bank balances", "banks", store.IDs(), "path", cfg.ConfigPath)
	}

	// Fit failure degrades to a neutral score; the service keeps running
	// but /ready reports the model as not loaded.
	estimator, err := risk.New(cfg.RiskSeed)
	if err != nil {
		log.Error("risk estimator unavailable, serving neutral score", "err", err)
	} else {
		hs.SetModelLoaded(true)
		log.Info("risk model fitted", "seed", cfg.RiskSeed)
	}

	// The pool must outlive the workers: Stop drains queued audit
	// exports, so it has to run before the pgx pool closes. Defers run
	// LIFO, hence pool first, workers second.
	var pgPool *pgxpool.Pool
	if cfg.AuditDatabaseURL != "" {
		var err error
		pgPool, err = db.NewPool(ctx, cfg.AuditDatabaseURL)
		if err != nil {
			log.Error("audit db connect", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()
	}

	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	var opts []ledger.Option
	if pgPool != nil {
		sink, err := audit.NewPGSink(ctx, pgPool, wp, log)
		if err != nil {
			log.Error("audit schema", "err", err)
			os.Exit(1)
		}
		opts = append(opts, ledger.WithExporter(sink))
		log.Info("audit sink enabled")
	}

	eng := ledger.NewEngine(store, estimator, log, cfg.DisplayCurrency, opts...)
	r := api.NewRouter(cfg, eng, hs)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		hs.SetServiceReady(true)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	hs.SetServiceReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
