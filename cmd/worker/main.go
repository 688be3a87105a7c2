package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/clinsync/clinsync/internal/config"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	"github.com/clinsync/clinsync/internal/repository/document"
	"github.com/clinsync/clinsync/pkg/logger"
	messagingredis "github.com/clinsync/clinsync/pkg/messaging/redis"
	"github.com/clinsync/clinsync/pkg/metrics"
	"github.com/clinsync/clinsync/pkg/worker"
)

func main() {
	log := logger.NewLogger(nil).WithComponent("worker")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	store, err := docstore.Open(cfg.Store.DSN)
	if err != nil {
		log.Fatal(err, "failed to open document store")
	}
	defer store.Close()

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

	outbox := document.NewOutboxRepository(store)
	m := metrics.NewMetrics("clinsync", "worker")

	processor := worker.NewOutboxProcessor(outbox, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, log, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor.Start(ctx)
}
