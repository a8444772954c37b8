package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deskforge/automation/internal/api"
	"github.com/deskforge/automation/internal/config"
	"github.com/deskforge/automation/internal/engine"
	"github.com/deskforge/automation/internal/history"
	"github.com/deskforge/automation/internal/logging"
	"github.com/deskforge/automation/internal/notify"
	"github.com/deskforge/automation/internal/records"
	"github.com/deskforge/automation/internal/store"
	"github.com/deskforge/automation/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	telemetry.Init()
	ctx := context.Background()

	ruleStore, pool, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	defer ruleStore.Close()

	var (
		mutator engine.RecordMutator
		sink    history.Sink
	)
	if pool != nil {
		pgSink := history.NewPostgresSink(pool)
		if err := pgSink.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("run history schema")
		}
		mutator = records.NewPostgresRecords(pool)
		sink = pgSink
	} else {
		mutator = records.NewMemoryRecords()
		sink = history.NewZerologSink(log)
	}

	var notifier engine.Notifier
	if cfg.MailRelayURL != "" {
		notifier = notify.NewRelayMailer(cfg.MailRelayURL, cfg.MailRelaySecret, log)
	} else {
		log.Warn().Msg("MAIL_RELAY_URL not set, SEND_EMAIL actions are log-only")
		notifier = notify.NewLogMailer(log)
	}

	eng, err := engine.New(ruleStore, mutator, notifier,
		engine.WithActionTimeout(cfg.ActionTimeout),
		engine.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}

	recorder := history.NewRecorder(sink, nil, log, cfg.HistoryQueueSize)
	defer recorder.Close()

	srvAPI, err := api.NewServer(ruleStore, eng, cfg.AdminAPIKey,
		api.WithRecorder(recorder),
		api.WithRateLimit(cfg.RateLimitPerIP),
		api.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("api")
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}
