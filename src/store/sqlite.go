package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// SQLiteStore is the embedded dialect of the Performance Store,
// grounded on an agent-dispatch tool's pragma-tuned sqlite persistence
// style: a single schema migrated with CREATE TABLE IF NOT EXISTS,
// WAL journaling, and a busy timeout so concurrent stage writers don't
// fail under lock contention.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS selector_stats (
	field TEXT NOT NULL,
	selector TEXT NOT NULL,
	successes INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0,
	quality_ema REAL NOT NULL DEFAULT 0,
	last_used DATETIME,
	PRIMARY KEY (field, selector)
);

CREATE TABLE IF NOT EXISTS agent_stats (
	ua TEXT PRIMARY KEY,
	successes INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0,
	quality_ema REAL NOT NULL DEFAULT 0,
	last_used DATETIME,
	active BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS proxy_stats (
	proxy TEXT PRIMARY KEY,
	successes INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0,
	quality_ema REAL NOT NULL DEFAULT 0,
	last_used DATETIME,
	active BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS product_records (
	code TEXT PRIMARY KEY,
	record_json TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	field TEXT NOT NULL,
	extraction_method TEXT NOT NULL,
	selector_pattern TEXT NOT NULL DEFAULT '',
	related_classes TEXT NOT NULL DEFAULT '[]',
	class_frequency TEXT NOT NULL DEFAULT '{}',
	element_present BOOLEAN NOT NULL DEFAULT 0,
	context_url TEXT NOT NULL DEFAULT '',
	context_code TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS error_reports (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	field TEXT NOT NULL,
	reported_value TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_chunks_field ON chunks(field);
CREATE INDEX IF NOT EXISTS idx_error_reports_field_status ON error_reports(field, status);
`

// OpenSQLiteStore creates or opens a sqlite-backed Performance Store
// at the given path and ensures the schema exists.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) RecordFetch(ctx context.Context, url string, success bool, rtMs int64, status int, ua, proxy string, retries int) error {
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

func (s *SQLiteStore) bumpAgent(ctx context.Context, ua string, success bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	successInc, failureInc := 0, 0
	if success {
		successInc = 1
	} else {
		failureInc = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO agent_stats (ua, successes, failures, quality_ema, last_used, active)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(ua) DO UPDATE SET
			successes = successes + excluded.successes,
			failures = failures + excluded.failures,
			last_used = excluded.last_used
	`, ua, successInc, failureInc, 1.0, nowUTC())
	if err != nil {
		return fmt.Errorf("store: bump agent: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) bumpProxy(ctx context.Context, proxy string, success bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	successInc, failureInc := 0, 0
	if success {
		successInc = 1
	} else {
		failureInc = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO proxy_stats (proxy, successes, failures, quality_ema, last_used, active)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(proxy) DO UPDATE SET
			successes = successes + excluded.successes,
			failures = failures + excluded.failures,
			last_used = excluded.last_used
	`, proxy, successInc, failureInc, 1.0, nowUTC())
	if err != nil {
		return fmt.Errorf("store: bump proxy: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecordSelector(ctx context.Context, field, selector string, success bool, quality float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	successInc, failureInc := 0, 0
	if success {
		successInc = 1
	} else {
		failureInc = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO selector_stats (field, selector, successes, failures, quality_ema, last_used)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(field, selector) DO UPDATE SET
			successes = successes + excluded.successes,
			failures = failures + excluded.failures,
			quality_ema = (quality_ema + excluded.quality_ema) / 2,
			last_used = excluded.last_used
	`, field, selector, successInc, failureInc, quality, nowUTC())
	if err != nil {
		return fmt.Errorf("store: record selector: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) BestSelectors(ctx context.Context, field string, limit int) ([]models.SelectorStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT selector, successes, failures, quality_ema, last_used
		FROM selector_stats WHERE field = ?
	`, field)
	if err != nil {
		return nil, fmt.Errorf("store: best selectors: %w", err)
	}
	defer rows.Close()

	var stats []models.SelectorStat
	for rows.Next() {
		var st models.SelectorStat
		var lastUsed sql.NullTime
		st.Field = field
		if err := rows.Scan(&st.Key, &st.Successes, &st.Failures, &st.QualityEMA, &lastUsed); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			st.LastUsed = lastUsed.Time
		}
		stats = append(stats, st)
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

func (s *SQLiteStore) BestUA(ctx context.Context) (string, error) {
	return s.bestKey(ctx, "agent_stats", "ua")
}

func (s *SQLiteStore) BestProxy(ctx context.Context) (string, error) {
	return s.bestKey(ctx, "proxy_stats", "proxy")
}

func (s *SQLiteStore) bestKey(ctx context.Context, table, col string) (string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, successes, failures, quality_ema FROM %s WHERE active = 1
	`, col, table))
	if err != nil {
		return "", fmt.Errorf("store: best %s: %w", table, err)
	}
	defer rows.Close()

	type cand struct {
		key               string
		successes, failures int64
		quality           float64
	}
	var cands []cand
	for rows.Next() {
		var c cand
		if err := rows.Scan(&c.key, &c.successes, &c.failures, &c.quality); err != nil {
			return "", err
		}
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		return "", nil
	}
	sort.Slice(cands, func(i, j int) bool {
		ri, rj := successRate(cands[i].successes, cands[i].failures), successRate(cands[j].successes, cands[j].failures)
		if ri != rj {
			return ri > rj
		}
		return cands[i].quality > cands[j].quality
	})
	return cands[0].key, nil
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, code string, recordJSON []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_records (code, record_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET record_json = excluded.record_json, updated_at = excluded.updated_at
	`, code, string(recordJSON), nowUTC())
	return err
}

func (s *SQLiteStore) AddChunk(ctx context.Context, field string, chunk models.Chunk) error {
	classesJSON, err := json.Marshal(chunk.RelatedClasses)
	if err != nil {
		return err
	}
	freqJSON, err := json.Marshal(chunk.ClassFrequency)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, field, extraction_method, selector_pattern, related_classes, class_frequency, element_present, context_url, context_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, chunk.ID, field, chunk.ExtractionMethod, chunk.SelectorPattern, string(classesJSON), string(freqJSON), chunk.ElementPresent, chunk.ContextURL, chunk.ContextCode, nowUTC())
	return err
}

func (s *SQLiteStore) ChunksForField(ctx context.Context, field string) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, field, extraction_method, selector_pattern, related_classes, class_frequency, element_present, context_url, context_code, created_at
		FROM chunks WHERE field = ? ORDER BY created_at DESC
	`, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var classesJSON, freqJSON string
		if err := rows.Scan(&c.ID, &c.Field, &c.ExtractionMethod, &c.SelectorPattern, &classesJSON, &freqJSON, &c.ElementPresent, &c.ContextURL, &c.ContextCode, &c.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(classesJSON), &c.RelatedClasses)
		json.Unmarshal([]byte(freqJSON), &c.ClassFrequency)
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// PriorityFields returns fields ordered by descending open error-report
// count (§4.1, §4.11). Chunks are not counted; a field with no open
// report is not returned.
func (s *SQLiteStore) PriorityFields(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, COUNT(*) AS cnt FROM error_reports WHERE status = 'open'
		GROUP BY field ORDER BY cnt DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []string
	for rows.Next() {
		var field string
		var cnt int
		if err := rows.Scan(&field, &cnt); err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (s *SQLiteStore) CreateErrorReport(ctx context.Context, report models.ErrorReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO error_reports (id, job_id, field, reported_value, status, created_at)
		VALUES (?, ?, ?, ?, 'open', ?)
	`, report.ID, report.JobID, report.Field, report.ReportedValue, nowUTC())
	return err
}

func (s *SQLiteStore) ResolveErrorReport(ctx context.Context, reportID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE error_reports SET status = 'resolved', resolved_at = ? WHERE id = ?
	`, nowUTC(), reportID)
	return err
}

func (s *SQLiteStore) SeedAgents(ctx context.Context, userAgents []string) error {
	for _, ua := range userAgents {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO agent_stats (ua, successes, failures, quality_ema, last_used, active)
			VALUES (?, 0, 0, 1.0, ?, 1)
			ON CONFLICT(ua) DO NOTHING
		`, ua, nowUTC())
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SeedProxies(ctx context.Context, proxies []string) error {
	for _, p := range proxies {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO proxy_stats (proxy, successes, failures, quality_ema, last_used, active)
			VALUES (?, 0, 0, 1.0, ?, 1)
			ON CONFLICT(proxy) DO NOTHING
		`, p, nowUTC())
		if err != nil {
			return err
		}
	}
	return nil
}

var _ PerformanceStore = (*SQLiteStore)(nil)
