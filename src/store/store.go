// Package store implements the Performance Store (C1): a durable,
// serialized key-value layer over selector/user-agent/proxy success
// counters, saved records, and extraction chunks. Two dialects
// satisfy the PerformanceStore interface — a gorm+postgres server
// dialect and a database/sql+sqlite embedded dialect — selected at
// startup by config.StoreDialect.
package store

import (
	"context"
	"time"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// PerformanceStore is the narrow, transactional interface consulted
// by the Adaptive Fetcher and Page Parser, and fed by the Chunk
// Feedback Loop.
type PerformanceStore interface {
	RecordFetch(ctx context.Context, url string, success bool, rtMs int64, status int, ua, proxy string, retries int) error
	RecordSelector(ctx context.Context, field, selector string, success bool, quality float64) error

	BestSelectors(ctx context.Context, field string, limit int) ([]models.SelectorStat, error)
	BestUA(ctx context.Context) (string, error)
	BestProxy(ctx context.Context) (string, error)

	SaveRecord(ctx context.Context, code string, recordJSON []byte) error

	AddChunk(ctx context.Context, field string, chunk models.Chunk) error
	ChunksForField(ctx context.Context, field string) ([]models.Chunk, error)
	PriorityFields(ctx context.Context, limit int) ([]string, error)

	CreateErrorReport(ctx context.Context, report models.ErrorReport) error
	ResolveErrorReport(ctx context.Context, reportID string) error

	SeedAgents(ctx context.Context, userAgents []string) error
	SeedProxies(ctx context.Context, proxies []string) error

	Close() error
}

// successRate computes the ranking score shared by every stat kind:
// successes / (successes + failures + 1), per §3.
func successRate(successes, failures int64) float64 {
	return float64(successes) / float64(successes+failures+1)
}

func nowUTC() time.Time { return time.Now().UTC() }
