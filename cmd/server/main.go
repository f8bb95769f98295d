package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Code-Vida/apistock/internal/config"
	"github.com/Code-Vida/apistock/internal/infra"
	"github.com/Code-Vida/apistock/internal/repository"
	"github.com/Code-Vida/apistock/internal/router"
	"github.com/Code-Vida/apistock/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := infra.NewTracerProvider(cfg.TracingEnabled)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	if cfg.AutoMigrate {
		if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBMaxOpenConn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Fiscal outbox. Worker handlers are wired here (composition root) so
	// that the pool has full access to all infrastructure dependencies.
	fiscalCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("focusnfe"))
	issuer := infra.NewFocusNFeClient(cfg.FiscalBaseURL, cfg.FiscalToken)
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	fiscalWorker := worker.NewFiscalWorker(issuer, fiscalCB, repository.NewFactory(db), dispatcher, rdb, worker.FiscalWorkerConfig{
		MaxAttempts: cfg.FiscalMaxAttempts,
		PollDelay:   cfg.FiscalPollDelay,
	})
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.Handler{
		worker.QueueFiscal: fiscalWorker,
		worker.QueueEmail:  worker.NewEmailWorker(mailer),
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{RDB: rdb, CB: fiscalCB})

	r := router.New(ctx, cfg, router.Deps{DB: db, RDB: rdb, FiscalCB: fiscalCB, Fiscal: dispatcher})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("apistock listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
