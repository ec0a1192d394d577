package jobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ctx := context.Background()

	job := &models.Job{ID: "job-1", URL: "https://example.com/g/123", Status: models.JobQueued}
	require.NoError(t, store.Create(ctx, job))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, got.Status)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := jobstore.NewMemoryStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
}

func TestMemoryStore_ProgressMonotonic(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ctx := context.Background()
	job := &models.Job{ID: "job-2", Status: models.JobQueued}
	require.NoError(t, store.Create(ctx, job))

	require.NoError(t, store.UpdateProgress(ctx, "job-2", models.Progress{Stage: models.StageCrawling, Percent: 20}))
	got, err := store.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, got.Status)
	assert.Equal(t, 20, got.Progress.Percent)

	require.NoError(t, store.UpdateProgress(ctx, "job-2", models.Progress{Stage: models.StageAnalyzing, Percent: 50}))
	got, err = store.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress.Percent)
}

func TestMemoryStore_SetResultCompletesJob(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ctx := context.Background()
	job := &models.Job{ID: "job-3", Status: models.JobRunning}
	require.NoError(t, store.Create(ctx, job))

	report := &models.Report{Recommendations: []models.Recommendation{}}
	require.NoError(t, store.SetResult(ctx, "job-3", report, models.SourceHTMLFetch))

	got, err := store.Get(ctx, "job-3")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
	assert.Equal(t, 100, got.Progress.Percent)
	assert.NotNil(t, got.Result)
	assert.Empty(t, got.Error)
}

func TestMemoryStore_SetErrorFailsJob(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ctx := context.Background()
	job := &models.Job{ID: "job-4", Status: models.JobRunning}
	require.NoError(t, store.Create(ctx, job))

	require.NoError(t, store.SetError(ctx, "job-4", "network error"))

	got, err := store.Get(ctx, "job-4")
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.Nil(t, got.Result)
	assert.Equal(t, "network error", got.Error)
}
