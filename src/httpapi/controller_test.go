package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/feedback"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/httpapi"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/monitor"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/worker"
)

type fakeStore struct{}

func (f *fakeStore) RecordFetch(ctx context.Context, url string, success bool, rtMs int64, status int, ua, proxy string, retries int) error {
	return nil
}
func (f *fakeStore) RecordSelector(ctx context.Context, field, selector string, success bool, quality float64) error {
	return nil
}
func (f *fakeStore) BestSelectors(ctx context.Context, field string, limit int) ([]models.SelectorStat, error) {
	return nil, nil
}
func (f *fakeStore) BestUA(ctx context.Context) (string, error)    { return "", nil }
func (f *fakeStore) BestProxy(ctx context.Context) (string, error) { return "", nil }
func (f *fakeStore) SaveRecord(ctx context.Context, code string, recordJSON []byte) error {
	return nil
}
func (f *fakeStore) AddChunk(ctx context.Context, field string, chunk models.Chunk) error { return nil }
func (f *fakeStore) ChunksForField(ctx context.Context, field string) ([]models.Chunk, error) {
	return nil, nil
}
func (f *fakeStore) CreateErrorReport(ctx context.Context, report models.ErrorReport) error {
	return nil
}
func (f *fakeStore) ResolveErrorReport(ctx context.Context, reportID string) error { return nil }
func (f *fakeStore) PriorityFields(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) SeedAgents(ctx context.Context, agents []string) error   { return nil }
func (f *fakeStore) SeedProxies(ctx context.Context, proxies []string) error { return nil }
func (f *fakeStore) Close() error                                           { return nil }

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, job *models.Job) {}

func newTestController(t *testing.T) (*httpapi.Controller, jobstore.JobStore) {
	jobs := jobstore.NewMemoryStore()
	mon := monitor.New(nil)
	t.Cleanup(mon.Stop)
	pool := worker.New(2, noopRunner{}, nil)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)
	fb := feedback.New(&fakeStore{}, jobs)

	return httpapi.New(jobs, pool, mon, fb, nil), jobs
}

func TestAnalyze_QueuesJobForValidProductURL(t *testing.T) {
	c, jobs := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	body, _ := json.Marshal(map[string]string{"url": "https://example.com/item/widget/12345"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "product", resp["url_kind"])
	assert.Equal(t, "queued", resp["status"])

	jobID, _ := resp["job_id"].(string)
	require.NotEmpty(t, jobID)
	_, err := jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
}

func TestAnalyze_RejectsUndetectableURL(t *testing.T) {
	c, _ := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	body, _ := json.Marshal(map[string]string{"url": "https://example.com/not-a-recognizable-path"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJob_ReturnsNotFoundForUnknownJob(t *testing.T) {
	c, _ := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/analyze/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJob_ReturnsCompletedResult(t *testing.T) {
	c, jobs := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	job := &models.Job{ID: "job-done", Status: models.JobCompleted, Result: &models.Report{}, CreatedAt: time.Now().UTC()}
	require.NoError(t, jobs.Create(context.Background(), job))

	req := httptest.NewRequest(http.MethodGet, "/analyze/job-done", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp["status"])
	assert.NotNil(t, resp["result"])
}

func TestDownload_RejectsIncompleteJob(t *testing.T) {
	c, jobs := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	job := &models.Job{ID: "job-running", Status: models.JobRunning, CreatedAt: time.Now().UTC()}
	require.NoError(t, jobs.Create(context.Background(), job))

	req := httptest.NewRequest(http.MethodGet, "/analyze/job-running/download?format=markdown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload_RendersMarkdownForCompletedJob(t *testing.T) {
	c, jobs := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	job := &models.Job{
		ID:     "job-md",
		Status: models.JobCompleted,
		Result: &models.Report{Product: &models.Product{Code: "1", Name: "Widget"}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, jobs.Create(context.Background(), job))

	req := httptest.NewRequest(http.MethodGet, "/analyze/job-md/download?format=markdown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Widget")
}

func TestHealth_ReportsHealthy(t *testing.T) {
	c, _ := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestFeedback_RejectsMismatchForUnknownJob(t *testing.T) {
	c, _ := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	body, _ := json.Marshal(map[string]string{"job_id": "missing", "field": "name", "reported_value": "x"})
	req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStageDetails_RequiresStageParam(t *testing.T) {
	c, _ := newTestController(t)
	router := httpapi.NewRouter(c, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/monitor/stage-details", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
