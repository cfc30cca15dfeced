package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vpexchange/internal/exchange/service"
	"vpexchange/internal/exchange/store"
	"vpexchange/internal/platform/config"
	"vpexchange/internal/platform/database"
	"vpexchange/internal/platform/health"
	"vpexchange/internal/platform/kafka"
	"vpexchange/internal/platform/kafka/producer"
	"vpexchange/internal/platform/redis"
	"vpexchange/migrations"
)

const poolStatsInterval = 15 * time.Second

// infra holds the backing services selected by configuration.
type infra struct {
	store    service.Store
	producer *producer.Producer
	closers  []func(ctx context.Context) error
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger, hh *health.Handler) (*infra, error) {
	in := &infra{}

	switch cfg.Store {
	case config.StoreMemory:
		in.store = store.NewMemory()
		log.Warn("using in-memory store, data is lost on restart")

	case config.StorePostgres:
		pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			pool.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, fmt.Errorf("migrate: %w", err)
		}
		in.store = store.NewPostgres(pool.DB())
		hh.RegisterCheck("postgres", pool.Health)
		in.closers = append(in.closers, func(context.Context) error { return pool.Close() })
		log.Info("using postgres store")

	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		in.store = store.NewRedis(client.Client)
		hh.RegisterCheck("redis", client.Health)
		go client.RecordPoolStatsEvery(ctx, poolStatsInterval)
		in.closers = append(in.closers, func(context.Context) error { return client.Close() })
		log.Info("using redis store")

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}

	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(producer.Config{
			Brokers: cfg.Kafka.Brokers,
			Acks:    cfg.Kafka.Acks,
			Retries: cfg.Kafka.Retries,
		}, log)
		if err != nil {
			in.close(ctx, log)
			return nil, err
		}
		in.producer = p
		hh.RegisterCheck("kafka", kafka.NewHealthChecker(p.Client()).Check)
		in.closers = append(in.closers, p.Close)
		log.Info("publishing transaction events", "topic", cfg.Kafka.EventsTopic)
	}

	return in, nil
}

// close releases resources in reverse order of acquisition.
func (in *infra) close(ctx context.Context, log *slog.Logger) {
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](ctx); err != nil {
			log.Warn("failed to release resource", "error", err)
		}
	}
}
