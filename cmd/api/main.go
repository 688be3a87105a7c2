package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinsync/clinsync/internal/authn"
	"github.com/clinsync/clinsync/internal/config"
	entityhandler "github.com/clinsync/clinsync/internal/handler/entity"
	healthhandler "github.com/clinsync/clinsync/internal/handler/health"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	"github.com/clinsync/clinsync/internal/repository/document"
	"github.com/clinsync/clinsync/internal/router"
	"github.com/clinsync/clinsync/internal/service/entity"
	"github.com/clinsync/clinsync/internal/service/validation"
	"github.com/clinsync/clinsync/pkg/logger"
	messagingredis "github.com/clinsync/clinsync/pkg/messaging/redis"
	"github.com/clinsync/clinsync/pkg/metrics"
	"github.com/clinsync/clinsync/pkg/worker"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	store, err := docstore.Open(cfg.Store.DSN)
	if err != nil {
		log.Fatal(err, "failed to open document store")
	}
	defer store.Close()

	m := metrics.NewMetrics("clinsync", "api")

	documents := docstore.Instrumented(store, m)
	identities := document.NewIdentityRepository(documents)
	patients := document.NewPatientProfileRepository(documents)
	practitioners := document.NewPractitionerProfileRepository(documents)
	outbox := document.NewOutboxRepository(documents)

	accounts := authn.NewHTTPProvider(authn.Config{
		BaseURL: cfg.Auth.BaseURL,
		APIKey:  cfg.Auth.APIKey,
		Timeout: cfg.Auth.Timeout,
	})

	entitySvc := entity.NewService(identities, patients, practitioners, accounts, outbox, log.WithComponent("entity"))
	validationSvc := validation.NewService(identities, patients, practitioners, log.WithComponent("validation"), m)

	engine := router.New(cfg, router.Handlers{
		Entity: entityhandler.NewHandler(entitySvc, validationSvc),
		Health: healthhandler.NewHandler(store),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Redis.URL != "" {
		broker, err := messagingredis.NewRedisBroker(messagingredis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log.Zerolog())
		if err != nil {
			log.Fatal(err, "failed to connect to redis")
		}

		processor := worker.NewOutboxProcessor(outbox, broker, worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		}, log.WithComponent("outbox"), m)
		go processor.Start(ctx)
	} else {
		log.Warn("redis url not configured, outbox events will stay pending")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "graceful shutdown failed")
		os.Exit(1)
	}
}
