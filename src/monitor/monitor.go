// Package monitor implements the Pipeline Monitor (C9): per-stage
// success/failure/duration sampling plus rolling aggregates across
// four period buckets, grounded on
// original_source/api/services/pipeline_monitor.py's
// _update_period_rate update-on-every-insert shape.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// maxRawPerStage bounds the in-memory raw-record history kept per
// stage for get_stage_details, newest first.
const maxRawPerStage = 500

// hourRetention bounds how long hour-granularity aggregates are kept
// once their hour has fully elapsed; day/week/month buckets already
// hold the same counts, so evicting stale hour buckets only bounds
// memory growth, it never loses information.
const hourRetention = 48 * time.Hour

type aggregateKey struct {
	periodType  models.PeriodType
	periodStart time.Time
	stage       models.Stage
}

// Monitor tracks per-stage outcomes and their rolling aggregates. The
// zero value is not usable; construct with New.
type Monitor struct {
	mu         sync.Mutex
	aggregates map[aggregateKey]*models.StageAggregate
	raw        map[models.Stage][]models.StageRecord
	cron       *cron.Cron
	log        *logging.Logger
}

// New builds a Monitor and starts its background rollup-compaction
// schedule (default every 5 minutes, per §4.9).
func New(log *logging.Logger) *Monitor {
	m := &Monitor{
		aggregates: map[aggregateKey]*models.StageAggregate{},
		raw:        map[models.Stage][]models.StageRecord{},
		log:        log,
	}
	c := cron.New()
	_, err := c.AddFunc("@every 5m", m.compact)
	if err == nil {
		m.cron = c
		c.Start()
	} else if log != nil {
		log.WithError(err).Info("monitor: failed to schedule rollup compaction")
	}
	return m
}

// Stop halts the background rollup schedule.
func (m *Monitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// RecordStage ingests one stage observation, updating every period
// bucket it falls into and appending it to the bounded raw history
// for its stage.
func (m *Monitor) RecordStage(ctx context.Context, rec models.StageRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pt := range []models.PeriodType{models.PeriodHour, models.PeriodDay, models.PeriodWeek, models.PeriodMonth} {
		key := aggregateKey{periodType: pt, periodStart: truncateTo(pt, rec.Timestamp), stage: rec.Stage}
		agg, ok := m.aggregates[key]
		if !ok {
			agg = &models.StageAggregate{PeriodType: pt, PeriodStart: key.periodStart, Stage: rec.Stage}
			m.aggregates[key] = agg
		}
		agg.Total++
		if rec.Status == "success" {
			agg.Success++
		} else {
			agg.Failure++
		}
		agg.SuccessRate = float64(agg.Success) / float64(agg.Total) * 100
		agg.AvgDurationMs = (agg.AvgDurationMs*float64(agg.Total-1) + float64(rec.DurationMs)) / float64(agg.Total)
	}

	history := append([]models.StageRecord{rec}, m.raw[rec.Stage]...)
	if len(history) > maxRawPerStage {
		history = history[:maxRawPerStage]
	}
	m.raw[rec.Stage] = history
	return nil
}

// GetSuccessRates returns the per-stage aggregate series for the last
// lookback periods of periodType, oldest first.
func (m *Monitor) GetSuccessRates(ctx context.Context, periodType models.PeriodType, lookback int) ([]models.StageAggregate, error) {
	if lookback <= 0 {
		lookback = 1
	}
	now := time.Now().UTC()
	earliest := stepBack(periodType, now, lookback)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.StageAggregate
	for key, agg := range m.aggregates {
		if key.periodType != periodType {
			continue
		}
		if agg.PeriodStart.Before(earliest) {
			continue
		}
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodStart.Equal(out[j].PeriodStart) {
			return out[i].PeriodStart.Before(out[j].PeriodStart)
		}
		return out[i].Stage < out[j].Stage
	})
	return out, nil
}

// GetStageDetails returns raw stage records for one stage, newest
// first, capped at limit.
func (m *Monitor) GetStageDetails(ctx context.Context, stage models.Stage, limit int) ([]models.StageRecord, error) {
	if limit <= 0 || limit > maxRawPerStage {
		limit = maxRawPerStage
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.raw[stage]
	if len(history) > limit {
		history = history[:limit]
	}
	out := make([]models.StageRecord, len(history))
	copy(out, history)
	return out, nil
}

// compact evicts hour-granularity aggregates whose hour fully elapsed
// more than hourRetention ago. Day/week/month buckets already carry
// the same counts, so this only bounds memory, it never loses data.
func (m *Monitor) compact() {
	cutoff := time.Now().UTC().Add(-hourRetention)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.aggregates {
		if key.periodType == models.PeriodHour && key.periodStart.Before(cutoff) {
			delete(m.aggregates, key)
		}
	}
}

func truncateTo(pt models.PeriodType, ts time.Time) time.Time {
	ts = ts.UTC()
	switch pt {
	case models.PeriodHour:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, time.UTC)
	case models.PeriodDay:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	case models.PeriodWeek:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday-anchored week
		return day.AddDate(0, 0, -offset)
	case models.PeriodMonth:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return ts
	}
}

func stepBack(pt models.PeriodType, from time.Time, periods int) time.Time {
	start := truncateTo(pt, from)
	switch pt {
	case models.PeriodHour:
		return start.Add(-time.Duration(periods) * time.Hour)
	case models.PeriodDay:
		return start.AddDate(0, 0, -periods)
	case models.PeriodWeek:
		return start.AddDate(0, 0, -periods*7)
	case models.PeriodMonth:
		return start.AddDate(0, -periods, 0)
	default:
		return start
	}
}
