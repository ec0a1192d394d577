package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/monitor"
)

func TestRecordStage_UpdatesEveryPeriodBucket(t *testing.T) {
	m := monitor.New(nil)
	defer m.Stop()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, m.RecordStage(ctx, models.StageRecord{
		JobID: "j1", Stage: models.StageCrawling, Status: "success", DurationMs: 120, Timestamp: now,
	}))

	for _, pt := range []models.PeriodType{models.PeriodHour, models.PeriodDay, models.PeriodWeek, models.PeriodMonth} {
		rates, err := m.GetSuccessRates(ctx, pt, 1)
		require.NoError(t, err)
		require.Len(t, rates, 1, "period type %s", pt)
		assert.Equal(t, int64(1), rates[0].Total)
		assert.Equal(t, int64(1), rates[0].Success)
		assert.Equal(t, float64(100), rates[0].SuccessRate)
	}
}

func TestRecordStage_SuccessRateAveragesAcrossInserts(t *testing.T) {
	m := monitor.New(nil)
	defer m.Stop()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, m.RecordStage(ctx, models.StageRecord{Stage: models.StageAnalyzing, Status: "success", DurationMs: 100, Timestamp: now}))
	require.NoError(t, m.RecordStage(ctx, models.StageRecord{Stage: models.StageAnalyzing, Status: "failure", DurationMs: 300, Timestamp: now}))

	rates, err := m.GetSuccessRates(ctx, models.PeriodHour, 1)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, int64(2), rates[0].Total)
	assert.Equal(t, float64(50), rates[0].SuccessRate)
	assert.InDelta(t, 200, rates[0].AvgDurationMs, 0.01)
}

func TestGetStageDetails_NewestFirst(t *testing.T) {
	m := monitor.New(nil)
	defer m.Stop()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, m.RecordStage(ctx, models.StageRecord{Stage: models.StageValidating, Status: "success", Timestamp: now, JobID: "first"}))
	require.NoError(t, m.RecordStage(ctx, models.StageRecord{Stage: models.StageValidating, Status: "success", Timestamp: now.Add(time.Second), JobID: "second"}))

	details, err := m.GetStageDetails(ctx, models.StageValidating, 10)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "second", details[0].JobID)
	assert.Equal(t, "first", details[1].JobID)
}

func TestGetSuccessRates_ExcludesPeriodsBeforeLookback(t *testing.T) {
	m := monitor.New(nil)
	defer m.Stop()
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, -3, 0)
	require.NoError(t, m.RecordStage(ctx, models.StageRecord{Stage: models.StageFinalizing, Status: "success", Timestamp: old}))

	rates, err := m.GetSuccessRates(ctx, models.PeriodMonth, 1)
	require.NoError(t, err)
	assert.Empty(t, rates)
}
