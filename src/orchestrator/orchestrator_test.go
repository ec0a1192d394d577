package orchestrator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/analyzer"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/fetcher"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/monitor"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/orchestrator"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/parser"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/validator"
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

func (f *fakeStore) PriorityFields(ctx context.Context, limit int) ([]string, error) { return nil, nil }
func (f *fakeStore) SeedAgents(ctx context.Context, userAgents []string) error        { return nil }
func (f *fakeStore) SeedProxies(ctx context.Context, proxies []string) error         { return nil }
func (f *fakeStore) Close() error                                                    { return nil }

type fakeSizer struct{}

func (fakeSizer) HeadSize(ctx context.Context, url string) (int64, error) { return 50_000, nil }

const productHTML = `
<html>
<head><title>Wireless Earbuds Pro | Qoo10</title></head>
<body>
  <h1 class="product-name">Wireless Earbuds Pro</h1>
  <div class="price_sale">12,800円</div>
  <div class="price_original">19,800円</div>
  <div id="detail_content">
    This is a detailed product description with more than ten characters.
    <img src="https://img.example.com/detail1.jpg" />
  </div>
  <div class="review_area">4.5 (128)</div>
</body>
</html>
`

func newTestOrchestrator(t *testing.T) (*orchestrator.Orchestrator, jobstore.JobStore) {
	fStore := &fakeStore{}
	f := fetcher.New(fStore, nil, fetcher.Config{InitialDelayMin: 1, InitialDelayMax: 2, MaxRetries: 1})
	p := parser.New(fStore)
	a := analyzer.New(fakeSizer{})
	v := validator.New(fStore)
	jobs := jobstore.NewMemoryStore()
	mon := monitor.New(nil)
	t.Cleanup(mon.Stop)

	orc := orchestrator.New(f, p, a, v, fStore, jobs, mon, nil, orchestrator.Config{
		CrawlTimeout: 5 * time.Second, AnalyzeTimeout: 2 * time.Second,
		ChecklistBudget: 2 * time.Second, ValidateTimeout: 2 * time.Second, FinalizeTimeout: 2 * time.Second,
	})
	return orc, jobs
}

func TestRun_ProductURLCompletesWithFullReport(t *testing.T) {
	orc, jobs := newTestOrchestrator(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(productHTML)) }))
	defer server.Close()

	job := &models.Job{ID: "job-1", URL: server.URL + "/item/widget/12345", URLKind: models.URLKindProduct, Status: models.JobQueued, CreatedAt: time.Now().UTC()}
	require.NoError(t, jobs.Create(context.Background(), job))

	orc.Run(context.Background(), job)

	got, err := jobs.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.NotNil(t, got.Result.Product)
	assert.NotNil(t, got.Result.AnalyzerResult)
	assert.NotNil(t, got.Result.ChecklistOutcome)
	assert.NotNil(t, got.Result.ValidationOutcome)
	assert.Equal(t, 100, got.Progress.Percent)
}

func TestRun_UnknownURLKindFailsJob(t *testing.T) {
	orc, jobs := newTestOrchestrator(t)

	job := &models.Job{ID: "job-2", URL: "https://example.com/not-a-recognizable-path", URLKind: models.URLKindUnknown, Status: models.JobQueued, CreatedAt: time.Now().UTC()}
	require.NoError(t, jobs.Create(context.Background(), job))

	orc.Run(context.Background(), job)

	got, err := jobs.Get(context.Background(), "job-2")
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.NotEmpty(t, got.Error)
	assert.Nil(t, got.Result)
}

func TestRun_FetchFailureFailsJobWithNetworkError(t *testing.T) {
	orc, jobs := newTestOrchestrator(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }))
	defer server.Close()

	job := &models.Job{ID: "job-3", URL: server.URL + "/item/widget/99999", URLKind: models.URLKindProduct, Status: models.JobQueued, CreatedAt: time.Now().UTC()}
	require.NoError(t, jobs.Create(context.Background(), job))

	orc.Run(context.Background(), job)

	got, err := jobs.Get(context.Background(), "job-3")
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
}
