// Package database dispatches the Performance Store and Job Store to
// their configured dialect, grounded on order_service/main.go's
// initDatabase/initRedis sequence generalized from one fixed postgres
// connection into a config-selected dialect switch (§6: "STORE_DIALECT
// ∈ {postgres, sqlite}, JOB_STORE_DIALECT ∈ {memory, redis}").
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/config"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

// OpenPerformanceStore opens the Performance Store dialect selected by
// cfg.StoreDialect, migrating its schema as a side effect.
func OpenPerformanceStore(cfg *config.Config) (store.PerformanceStore, error) {
	switch cfg.StoreDialect {
	case config.DialectPostgres:
		return store.OpenPostgresStore(store.PostgresConfig{
			DSN:                cfg.DatabaseURL,
			MaxOpenConnections: 25,
			MaxIdleConnections: 5,
			ConnMaxLifetime:    5 * time.Minute,
		})
	case config.DialectSQLite, "":
		return store.OpenSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("database: unknown store dialect %q", cfg.StoreDialect)
	}
}

// OpenJobStore opens the Job Store dialect selected by
// cfg.JobStoreDialect. A nil redisClient with JobStoreRedis falls back
// to MemoryStore, since a job store with no backing process is still
// better than a hard failure at startup.
func OpenJobStore(cfg *config.Config, redisClient *redis.Client) jobstore.JobStore {
	if cfg.JobStoreDialect == config.JobStoreRedis && redisClient != nil {
		return jobstore.NewRedisStore(redisClient, 24*time.Hour)
	}
	return jobstore.NewMemoryStore()
}

// OpenRedisClient connects to Redis for both the Job Store's redis
// dialect and the Performance Store's cache-aside layer. It returns
// a nil client and an error if the URL cannot be parsed or the server
// does not answer a ping within 5 seconds; main then degrades to an
// uncached/in-memory path rather than fail startup.
func OpenRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("database: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("database: ping redis: %w", err)
	}
	return client, nil
}
