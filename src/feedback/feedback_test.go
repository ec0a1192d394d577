package feedback_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/feedback"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

type fakeStore struct {
	reports  []models.ErrorReport
	resolved []string
	chunks   []models.Chunk
}

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
func (f *fakeStore) AddChunk(ctx context.Context, field string, chunk models.Chunk) error {
	f.chunks = append(f.chunks, chunk)
	return nil
}
func (f *fakeStore) ChunksForField(ctx context.Context, field string) ([]models.Chunk, error) {
	return nil, nil
}
func (f *fakeStore) CreateErrorReport(ctx context.Context, report models.ErrorReport) error {
	f.reports = append(f.reports, report)
	return nil
}
func (f *fakeStore) ResolveErrorReport(ctx context.Context, reportID string) error {
	f.resolved = append(f.resolved, reportID)
	return nil
}
func (f *fakeStore) PriorityFields(ctx context.Context, limit int) ([]string, error) {
	return []string{"name", "description"}, nil
}
func (f *fakeStore) SeedAgents(ctx context.Context, userAgents []string) error { return nil }
func (f *fakeStore) SeedProxies(ctx context.Context, proxies []string) error   { return nil }
func (f *fakeStore) Close() error                                             { return nil }

func completedJob() *models.Job {
	return &models.Job{
		ID:     "job-1",
		URL:    "https://example.com/item/widget/1",
		Status: models.JobCompleted,
		Result: &models.Report{
			Product: &models.Product{
				URL:  "https://example.com/item/widget/1",
				Code: "1",
				Name: "Widget",
				PageStructure: &models.PageStructure{
					ClassFrequency: map[string]int{"name": 2},
					SemanticStructure: map[models.SemanticField][]models.ClassFreq{
						models.SemanticName: {{Class: "product-name", Freq: 2}},
					},
				},
			},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestReportMismatch_CreatesReportAndChunk(t *testing.T) {
	perfStore := &fakeStore{}
	jobs := jobstore.NewMemoryStore()
	require.NoError(t, jobs.Create(context.Background(), completedJob()))

	svc := feedback.New(perfStore, jobs)
	report, err := svc.ReportMismatch(context.Background(), "job-1", "name", "Different Name")

	require.NoError(t, err)
	assert.Equal(t, "job-1", report.JobID)
	assert.Equal(t, "name", report.Field)
	assert.Equal(t, "open", report.Status)
	require.Len(t, perfStore.reports, 1)
	require.Len(t, perfStore.chunks, 1)
	assert.Equal(t, "https://example.com/item/widget/1", perfStore.chunks[0].ContextURL)
	assert.Contains(t, perfStore.chunks[0].RelatedClasses, "product-name")
}

func TestReportMismatch_FailsForUnknownJob(t *testing.T) {
	perfStore := &fakeStore{}
	jobs := jobstore.NewMemoryStore()
	svc := feedback.New(perfStore, jobs)

	_, err := svc.ReportMismatch(context.Background(), "missing-job", "name", "x")
	assert.Error(t, err)
}

func TestReportMismatch_FailsForIncompleteJob(t *testing.T) {
	perfStore := &fakeStore{}
	jobs := jobstore.NewMemoryStore()
	job := &models.Job{ID: "job-2", Status: models.JobRunning}
	require.NoError(t, jobs.Create(context.Background(), job))
	svc := feedback.New(perfStore, jobs)

	_, err := svc.ReportMismatch(context.Background(), "job-2", "name", "x")
	assert.Error(t, err)
}

func TestResolveReport_FlipsStatus(t *testing.T) {
	perfStore := &fakeStore{}
	jobs := jobstore.NewMemoryStore()
	svc := feedback.New(perfStore, jobs)

	require.NoError(t, svc.ResolveReport(context.Background(), "report-1"))
	assert.Contains(t, perfStore.resolved, "report-1")
}

func TestPriorityFields_DelegatesToStore(t *testing.T) {
	perfStore := &fakeStore{}
	jobs := jobstore.NewMemoryStore()
	svc := feedback.New(perfStore, jobs)

	fields, err := svc.PriorityFields(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "description"}, fields)
}
