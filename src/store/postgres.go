package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// selectorStatRow, agentStatRow, proxyStatRow, productRecordRow,
// chunkRow, errorReportRow are the gorm row shapes backing the
// postgres dialect of the Performance Store.
type selectorStatRow struct {
	Field      string `gorm:"primaryKey"`
	Selector   string `gorm:"primaryKey"`
	Successes  int64
	Failures   int64
	QualityEMA float64
	LastUsed   time.Time
}

func (selectorStatRow) TableName() string { return "selector_stats" }

type agentStatRow struct {
	UA         string `gorm:"primaryKey;column:ua"`
	Successes  int64
	Failures   int64
	QualityEMA float64
	LastUsed   time.Time
	Active     bool
}

func (agentStatRow) TableName() string { return "agent_stats" }

type proxyStatRow struct {
	Proxy      string `gorm:"primaryKey"`
	Successes  int64
	Failures   int64
	QualityEMA float64
	LastUsed   time.Time
	Active     bool
}

func (proxyStatRow) TableName() string { return "proxy_stats" }

type productRecordRow struct {
	Code       string `gorm:"primaryKey"`
	RecordJSON string
	UpdatedAt  time.Time
}

func (productRecordRow) TableName() string { return "product_records" }

type chunkRow struct {
	ID               string `gorm:"primaryKey"`
	Field            string `gorm:"index"`
	ExtractionMethod string
	SelectorPattern  string
	RelatedClasses   string
	ClassFrequency   string
	ElementPresent   bool
	ContextURL       string
	ContextCode      string
	CreatedAt        time.Time
}

func (chunkRow) TableName() string { return "chunks" }

type errorReportRow struct {
	ID            string `gorm:"primaryKey"`
	JobID         string
	Field         string `gorm:"index"`
	ReportedValue string
	Status        string `gorm:"index"`
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

func (errorReportRow) TableName() string { return "error_reports" }

// PostgresStore is the server dialect of the Performance Store.
type PostgresStore struct {
	db *gorm.DB
}

// PostgresConfig configures the connection, modeled on the order
// service's database.Config.
type PostgresConfig struct {
	DSN                string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// OpenPostgresStore migrates the Performance Store's tables via the
// embedded golang-migrate source, then connects gorm for querying.
func OpenPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if err := runPostgresMigrations(cfg.DSN); err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(logger.Warn)

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) RecordFetch(ctx context.Context, url string, success bool, rtMs int64, status int, ua, proxy string, retries int) error {
	if ua != "" {
		if err := s.bumpAgent(ctx, ua, success); err != nil {
			return err
		}
	}
	if proxy != "" {
		if err := s.bumpProxy(ctx, proxy, success); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) bumpAgent(ctx context.Context, ua string, success bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		successInc, failureInc := int64(0), int64(0)
		if success {
			successInc = 1
		} else {
			failureInc = 1
		}
		row := agentStatRow{UA: ua, Successes: successInc, Failures: failureInc, QualityEMA: 1.0, LastUsed: nowUTC(), Active: true}
		return tx.Exec(`
			INSERT INTO agent_stats (ua, successes, failures, quality_ema, last_used, active)
			VALUES (?, ?, ?, ?, ?, true)
			ON CONFLICT (ua) DO UPDATE SET
				successes = agent_stats.successes + excluded.successes,
				failures = agent_stats.failures + excluded.failures,
				last_used = excluded.last_used
		`, row.UA, row.Successes, row.Failures, row.QualityEMA, row.LastUsed).Error
	})
}

func (s *PostgresStore) bumpProxy(ctx context.Context, proxy string, success bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		successInc, failureInc := int64(0), int64(0)
		if success {
			successInc = 1
		} else {
			failureInc = 1
		}
		return tx.Exec(`
			INSERT INTO proxy_stats (proxy, successes, failures, quality_ema, last_used, active)
			VALUES (?, ?, ?, ?, ?, true)
			ON CONFLICT (proxy) DO UPDATE SET
				successes = proxy_stats.successes + excluded.successes,
				failures = proxy_stats.failures + excluded.failures,
				last_used = excluded.last_used
		`, proxy, successInc, failureInc, 1.0, nowUTC()).Error
	})
}

func (s *PostgresStore) RecordSelector(ctx context.Context, field, selector string, success bool, quality float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		successInc, failureInc := int64(0), int64(0)
		if success {
			successInc = 1
		} else {
			failureInc = 1
		}
		return tx.Exec(`
			INSERT INTO selector_stats (field, selector, successes, failures, quality_ema, last_used)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (field, selector) DO UPDATE SET
				successes = selector_stats.successes + excluded.successes,
				failures = selector_stats.failures + excluded.failures,
				quality_ema = (selector_stats.quality_ema + excluded.quality_ema) / 2,
				last_used = excluded.last_used
		`, field, selector, successInc, failureInc, quality, nowUTC()).Error
	})
}

func (s *PostgresStore) BestSelectors(ctx context.Context, field string, limit int) ([]models.SelectorStat, error) {
	var rows []selectorStatRow
	if err := s.db.WithContext(ctx).Where("field = ?", field).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: best selectors: %w", err)
	}

	stats := make([]models.SelectorStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, models.SelectorStat{
			Key: r.Selector, Field: r.Field, Successes: r.Successes,
			Failures: r.Failures, QualityEMA: r.QualityEMA, LastUsed: r.LastUsed,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		ri, rj := stats[i].SuccessRate(), stats[j].SuccessRate()
		if ri != rj {
			return ri > rj
		}
		return stats[i].QualityEMA > stats[j].QualityEMA
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (s *PostgresStore) BestUA(ctx context.Context) (string, error) {
	var rows []agentStatRow
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&rows).Error; err != nil {
		return "", err
	}
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := successRate(rows[i].Successes, rows[i].Failures), successRate(rows[j].Successes, rows[j].Failures)
		if ri != rj {
			return ri > rj
		}
		return rows[i].QualityEMA > rows[j].QualityEMA
	})
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].UA, nil
}

func (s *PostgresStore) BestProxy(ctx context.Context) (string, error) {
	var rows []proxyStatRow
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&rows).Error; err != nil {
		return "", err
	}
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := successRate(rows[i].Successes, rows[i].Failures), successRate(rows[j].Successes, rows[j].Failures)
		if ri != rj {
			return ri > rj
		}
		return rows[i].QualityEMA > rows[j].QualityEMA
	})
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Proxy, nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, code string, recordJSON []byte) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO product_records (code, record_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET record_json = excluded.record_json, updated_at = excluded.updated_at
	`, code, string(recordJSON), nowUTC()).Error
}

func (s *PostgresStore) AddChunk(ctx context.Context, field string, chunk models.Chunk) error {
	classesJSON, err := json.Marshal(chunk.RelatedClasses)
	if err != nil {
		return err
	}
	freqJSON, err := json.Marshal(chunk.ClassFrequency)
	if err != nil {
		return err
	}
	row := chunkRow{
		ID: chunk.ID, Field: field, ExtractionMethod: chunk.ExtractionMethod,
		SelectorPattern: chunk.SelectorPattern, RelatedClasses: string(classesJSON),
		ClassFrequency: string(freqJSON), ElementPresent: chunk.ElementPresent,
		ContextURL: chunk.ContextURL, ContextCode: chunk.ContextCode, CreatedAt: nowUTC(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *PostgresStore) ChunksForField(ctx context.Context, field string) ([]models.Chunk, error) {
	var rows []chunkRow
	if err := s.db.WithContext(ctx).Where("field = ?", field).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, 0, len(rows))
	for _, r := range rows {
		c := models.Chunk{
			ID: r.ID, Field: r.Field, ExtractionMethod: r.ExtractionMethod,
			SelectorPattern: r.SelectorPattern, ElementPresent: r.ElementPresent,
			ContextURL: r.ContextURL, ContextCode: r.ContextCode, CreatedAt: r.CreatedAt,
		}
		json.Unmarshal([]byte(r.RelatedClasses), &c.RelatedClasses)
		json.Unmarshal([]byte(r.ClassFrequency), &c.ClassFrequency)
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (s *PostgresStore) PriorityFields(ctx context.Context, limit int) ([]string, error) {
	type row struct {
		Field string
		Cnt   int64
	}
	var rows []row
	if err := s.db.WithContext(ctx).Model(&errorReportRow{}).
		Select("field, count(*) as cnt").
		Where("status = ?", "open").
		Group("field").Order("cnt DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(rows))
	for _, r := range rows {
		fields = append(fields, r.Field)
	}
	return fields, nil
}

func (s *PostgresStore) CreateErrorReport(ctx context.Context, report models.ErrorReport) error {
	row := errorReportRow{
		ID: report.ID, JobID: report.JobID, Field: report.Field,
		ReportedValue: report.ReportedValue, Status: "open", CreatedAt: nowUTC(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *PostgresStore) ResolveErrorReport(ctx context.Context, reportID string) error {
	return s.db.WithContext(ctx).Model(&errorReportRow{}).
		Where("id = ?", reportID).
		Updates(map[string]interface{}{"status": "resolved", "resolved_at": nowUTC()}).Error
}

func (s *PostgresStore) SeedAgents(ctx context.Context, userAgents []string) error {
	for _, ua := range userAgents {
		if err := s.db.WithContext(ctx).Exec(`
			INSERT INTO agent_stats (ua, successes, failures, quality_ema, last_used, active)
			VALUES (?, 0, 0, 1.0, ?, true) ON CONFLICT (ua) DO NOTHING
		`, ua, nowUTC()).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) SeedProxies(ctx context.Context, proxies []string) error {
	for _, p := range proxies {
		if err := s.db.WithContext(ctx).Exec(`
			INSERT INTO proxy_stats (proxy, successes, failures, quality_ema, last_used, active)
			VALUES (?, 0, 0, 1.0, ?, true) ON CONFLICT (proxy) DO NOTHING
		`, p, nowUTC()).Error; err != nil {
			return err
		}
	}
	return nil
}

var _ PerformanceStore = (*PostgresStore)(nil)
