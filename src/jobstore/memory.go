package jobstore

import (
	"context"
	"sync"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// MemoryStore is an in-process, mutex-guarded map implementation of
// JobStore. Entries persist for the process lifetime; no eviction is
// required for the core spec.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

func (m *MemoryStore) Create(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateProgress(ctx context.Context, jobID string, progress models.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	job.Status = models.JobRunning
	job.Progress = progress
	return nil
}

func (m *MemoryStore) SetResult(ctx context.Context, jobID string, result *models.Report, dataSource models.DataSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	result.DataSource = dataSource
	job.Result = result
	job.Status = models.JobCompleted
	job.Progress = models.Progress{Stage: models.StageFinalizing, Percent: 100, Message: "completed"}
	job.Error = ""
	return nil
}

func (m *MemoryStore) SetError(ctx context.Context, jobID string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	job.Status = models.JobFailed
	job.Error = errMsg
	job.Result = nil
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

var _ JobStore = (*MemoryStore)(nil)
